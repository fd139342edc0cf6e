package webhook

// Payload is the notification body the WhatsApp Cloud API posts to /webhook.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value  `json:"value"`
	Field string `json:"field"`
}

type Value struct {
	MessagingProduct string `json:"messaging_product"`
	Metadata         struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Messages []Message `json:"messages,omitempty"`
	Statuses []Status  `json:"statuses,omitempty"`
}

type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Image    *Media `json:"image,omitempty"`
	Video    *Media `json:"video,omitempty"`
	Audio    *Media `json:"audio,omitempty"`
	Document *Media `json:"document,omitempty"`
	Button   *struct {
		Text string `json:"text"`
	} `json:"button,omitempty"`
	Type string `json:"type"`
}

// Media is an attachment reference in an inbound message.
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// Summary flattens a message into the text stored in the notification log.
func (m Message) Summary() string {
	media := func(kind string, md *Media, extra string) string {
		if md == nil {
			return "[" + kind + "]"
		}
		s := "[" + kind + "]:" + md.ID
		if extra != "" {
			s += ":" + extra
		}
		return s
	}

	switch m.Type {
	case "text":
		return m.Text.Body
	case "button":
		if m.Button != nil {
			return m.Button.Text
		}
	case "image":
		if m.Image != nil {
			return media("image", m.Image, m.Image.Caption)
		}
	case "video":
		if m.Video != nil {
			return media("video", m.Video, m.Video.Caption)
		}
	case "audio":
		return media("audio", m.Audio, "")
	case "document":
		if m.Document != nil {
			return media("document", m.Document, m.Document.Filename)
		}
	}
	return "[" + m.Type + "]"
}
