package api

import (
	"context"

	"nibog/internal/cache"

	"github.com/sirupsen/logrus"
)

// ContentNotifier pushes "please refetch" signals to connected clients.
type ContentNotifier interface {
	ContentChanged(topic string)
}

type contentSignal struct {
	cache cache.Cache
	hub   ContentNotifier
}

// changed drops the cached keys and tells clients that topic changed.
func (s contentSignal) changed(ctx context.Context, topic string, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logrus.WithError(err).WithField("topic", topic).Warn("cache invalidation failed")
	}
	if s.hub != nil {
		s.hub.ContentChanged(topic)
	}
}

// nopCache is used by handlers that signal clients but cache nothing.
var nopCache cache.Cache = cache.Nop{}
