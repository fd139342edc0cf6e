package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"nibog/internal/config"
)

// Client talks to the WhatsApp Cloud API. Credentials are snapshotted from
// Config on every call so settings updated at runtime take effect immediately.
type Client struct {
	Config     *config.Config
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		Config:     cfg,
		httpClient: &http.Client{Timeout: cfg.WhatsAppTimeout},
	}
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: %d - %s", e.StatusCode, e.Body)
}

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	Text             *TextObj     `json:"text,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type TemplateObj struct {
	Name       string         `json:"name"`
	Language   LanguageObj    `json:"language"`
	Components []ComponentObj `json:"components,omitempty"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

type ComponentObj struct {
	Type       string         `json:"type"`
	SubType    string         `json:"sub_type,omitempty"`
	Parameters []ParameterObj `json:"parameters"`
	Index      string         `json:"index,omitempty"` // For buttons
}

type ParameterObj struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Content summarises a message for notification logs.
func (m GenericMessage) Content() string {
	switch {
	case m.Text != nil:
		return m.Text.Body
	case m.Template != nil:
		return "Template: " + m.Template.Name
	default:
		return m.Type + " message"
	}
}

// --- Helper Functions ---

func (c *Client) endpoint(parts ...string) string {
	return strings.TrimRight(c.Config.WhatsAppAPIURL, "/") + "/" + strings.Join(parts, "/")
}

func (c *Client) sendRequest(ctx context.Context, token, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	if c.Config.WhatsAppTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Config.WhatsAppTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// --- Messaging Methods ---

// SendRawMessage posts msg and returns the provider message id.
func (c *Client) SendRawMessage(ctx context.Context, msg GenericMessage) (string, error) {
	creds := c.Config.Credentials()
	resp, err := c.sendRequest(ctx, creds.WhatsAppToken, http.MethodPost, c.endpoint(creds.PhoneNumberID, "messages"), msg)
	if err != nil {
		return "", err
	}

	var out sendResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return "", fmt.Errorf("decode send response: %w", err)
	}
	if len(out.Messages) == 0 {
		return "", nil
	}
	return out.Messages[0].ID, nil
}

func TextMessage(to, body string) GenericMessage {
	return GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &TextObj{Body: body},
	}
}

// TemplateMessage builds a template message; params fill the body placeholders in order.
func TemplateMessage(to, templateName, languageCode string, params []string) GenericMessage {
	tmpl := &TemplateObj{
		Name:     templateName,
		Language: LanguageObj{Code: languageCode},
	}
	if len(params) > 0 {
		body := ComponentObj{Type: "body"}
		for _, p := range params {
			body.Parameters = append(body.Parameters, ParameterObj{Type: "text", Text: p})
		}
		tmpl.Components = []ComponentObj{body}
	}
	return GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template:         tmpl,
	}
}

func (c *Client) SendMessage(ctx context.Context, to, body string) (string, error) {
	return c.SendRawMessage(ctx, TextMessage(to, body))
}

func (c *Client) SendTemplateMessage(ctx context.Context, to, templateName, languageCode string, params []string) (string, error) {
	return c.SendRawMessage(ctx, TemplateMessage(to, templateName, languageCode, params))
}

// --- Template Management Methods ---

type RemoteTemplate struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Language   string          `json:"language"`
	Category   string          `json:"category"`
	Status     string          `json:"status"`
	Components json.RawMessage `json:"components"`
}

type TemplateList struct {
	Data []RemoteTemplate `json:"data"`
}

func (c *Client) GetTemplates(ctx context.Context) (*TemplateList, error) {
	creds := c.Config.Credentials()
	resp, err := c.sendRequest(ctx, creds.WhatsAppToken, http.MethodGet, c.endpoint(creds.WhatsAppBusinessAccountID, "message_templates"), nil)
	if err != nil {
		return nil, err
	}

	var list TemplateList
	if err := json.Unmarshal(resp, &list); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	return &list, nil
}

func (c *Client) CreateTemplate(ctx context.Context, templateData interface{}) (map[string]interface{}, error) {
	creds := c.Config.Credentials()
	resp, err := c.sendRequest(ctx, creds.WhatsAppToken, http.MethodPost, c.endpoint(creds.WhatsAppBusinessAccountID, "message_templates"), templateData)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	err = json.Unmarshal(resp, &result)
	return result, err
}

func (c *Client) DeleteTemplate(ctx context.Context, templateName string) error {
	creds := c.Config.Credentials()
	u := c.endpoint(creds.WhatsAppBusinessAccountID, "message_templates") + "?name=" + url.QueryEscape(templateName)
	_, err := c.sendRequest(ctx, creds.WhatsAppToken, http.MethodDelete, u, nil)
	return err
}
