package api

import (
	"net/http"
	"testing"

	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFAQsPublicListShowsActiveInOrder(t *testing.T) {
	env := newTestEnv(t)
	for _, req := range []FAQRequest{
		{Question: "Second?", Answer: "b", DisplayOrder: 2},
		{Question: "Hidden?", Answer: "c", DisplayOrder: 0, Status: models.FAQStatusInactive},
		{Question: "First?", Answer: "a", DisplayOrder: 1},
	} {
		w := env.do(t, http.MethodPost, "/api/admin/faqs", req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	var faqs []models.FAQ
	decode(t, env.do(t, http.MethodGet, "/api/faqs", nil), &faqs)
	require.Len(t, faqs, 2)
	assert.Equal(t, "First?", faqs[0].Question)

	decode(t, env.do(t, http.MethodGet, "/api/admin/faqs", nil), &faqs)
	assert.Len(t, faqs, 3)

	w := env.do(t, http.MethodPost, "/api/admin/faqs", FAQRequest{Question: "q", Answer: "a", Status: "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/api/admin/faqs/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPolicyPageRendersMarkdown(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/admin/pages/refund", PageRequest{Content: "# Refunds\n\nNo refunds <script>x</script>"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page PageView
	decode(t, env.do(t, http.MethodGet, "/api/pages/refund", nil), &page)
	assert.Equal(t, "Refund Policy", page.Title)
	assert.Contains(t, page.HTML, "<h1>Refunds</h1>")
	assert.NotContains(t, page.HTML, "<script>")

	w = env.do(t, http.MethodGet, "/api/pages/cookies", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPut, "/api/admin/pages/cookies", PageRequest{Content: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFooterAndGeneralSettings(t *testing.T) {
	env := newTestEnv(t)

	var footer models.FooterSetting
	decode(t, env.do(t, http.MethodGet, "/api/settings/footer", nil), &footer)
	assert.Equal(t, "NIBOG", footer.CompanyName)

	w := env.do(t, http.MethodPut, "/api/admin/settings/footer", gin.H{"id": 7, "company_name": "NIBOG Events", "phone": "+91 90000 00000"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env.do(t, http.MethodGet, "/api/settings/footer", nil), &footer)
	assert.Equal(t, uint(1), footer.ID)
	assert.Equal(t, "NIBOG Events", footer.CompanyName)

	var count int64
	env.db.Model(&models.FooterSetting{}).Count(&count)
	assert.EqualValues(t, 1, count)

	w = env.do(t, http.MethodPut, "/api/admin/settings/general", gin.H{"site_name": "NIBOG", "contact_email": "hello@nibog.in"})
	require.Equal(t, http.StatusOK, w.Code)
	var general models.GeneralSetting
	decode(t, env.do(t, http.MethodGet, "/api/settings/general", nil), &general)
	assert.Equal(t, "hello@nibog.in", general.ContactEmail)
}

func TestContentMutationSignalsClients(t *testing.T) {
	rec := &topicRecorder{}
	db := newTestEnv(t).db
	h := NewContentHandler(db, nopCache, rec)
	r := newEngine()
	r.POST("/faqs", h.CreateFAQ)

	env := &testEnv{router: r}
	w := env.do(t, http.MethodPost, "/faqs", FAQRequest{Question: "q", Answer: "a"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"faqs"}, rec.topics)
}

type topicRecorder struct {
	topics []string
}

func (r *topicRecorder) ContentChanged(topic string) {
	r.topics = append(r.topics, topic)
}
