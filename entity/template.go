package entity

import "strings"

type PlaceholderField struct {
	Key   string
	Value string
}

type Template struct {
	ID          *string `json:"id,omitempty"`
	CampaignID  *string `json:"campaign_id,omitempty"`
	HtmlContent *string `json:"html_content,omitempty"`
	TextContent *string `json:"text_content,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	CreateTime  *uint64 `json:"create_time,omitempty"`
	UpdateTime  *uint64 `json:"update_time,omitempty"`
}

func (e *Template) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *Template) GetCampaignID() string {
	if e != nil && e.CampaignID != nil {
		return *e.CampaignID
	}
	return ""
}

func (e *Template) GetHtmlContent() string {
	if e != nil && e.HtmlContent != nil {
		return *e.HtmlContent
	}
	return ""
}

func (e *Template) GetTextContent() string {
	if e != nil && e.TextContent != nil {
		return *e.TextContent
	}
	return ""
}

func (e *Template) GetIsActive() bool {
	if e != nil && e.IsActive != nil {
		return *e.IsActive
	}
	return false
}

// RenderPlaceholders substitutes double-brace tokens ({{key}}) with the
// values of the given ordered fields. Tokens whose key has no field are
// left verbatim.
func RenderPlaceholders(content string, fields []*PlaceholderField) string {
	for _, f := range fields {
		content = strings.ReplaceAll(content, "{{"+f.Key+"}}", f.Value)
	}
	return content
}
