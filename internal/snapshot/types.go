package snapshot

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Snapshot is everything needed to render one point in time for a display
// token. Snapshots are never mutated after the loader returns them.
type Snapshot struct {
	Screen            *Screen        `json:"screen"`
	Menus             []Menu         `json:"menus"`
	TemplateRotations []Rotation     `json:"templateRotations,omitempty"`
	Template          *Template      `json:"template,omitempty"`
	ScreenBlocks      []Block        `json:"screenBlocks,omitempty"`
	BlockContents     []BlockContent `json:"blockContents,omitempty"`
	DigitalMenuData   *DigitalMenu   `json:"digitalMenuData,omitempty"`
	NotFound          bool           `json:"notFound,omitempty"`

	// RotationIndex is the slot this snapshot was requested for, -1 when the
	// request carried no index.
	RotationIndex int       `json:"-"`
	FetchedAt     time.Time `json:"-"`
}

type Screen struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Location                 string `json:"location,omitempty"`
	BusinessName             string `json:"business_name,omitempty"`
	AnimationType            string `json:"animation_type,omitempty"`
	AnimationDuration        int    `json:"animation_duration,omitempty"`
	TemplateTransitionEffect string `json:"template_transition_effect,omitempty"`
	TickerText               string `json:"ticker_text,omitempty"`
	TickerStyle              string `json:"ticker_style,omitempty"`
	FrameType                string `json:"frame_type,omitempty"`
	LanguageCode             string `json:"language_code,omitempty"`
	FontFamily               string `json:"font_family,omitempty"`
	BackgroundStyle          string `json:"background_style,omitempty"`
	BackgroundColor          string `json:"background_color,omitempty"`
	BackgroundImageURL       string `json:"background_image_url,omitempty"`
	PrimaryColor             string `json:"primary_color,omitempty"`
}

type Menu struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	SlideDuration int        `json:"slide_duration"`
	Items         []MenuItem `json:"items"`
}

type MenuItem struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        Price  `json:"price,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	DisplayOrder int    `json:"display_order,omitempty"`
}

// Price accepts JSON numbers and strings; Postgres numeric columns arrive
// as strings. A string that is not a plain number ("12.50 TL") is kept as
// Text and shown verbatim.
type Price struct {
	Value float64
	Text  string
}

func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		if value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
			p.Value = value
			return nil
		}
		p.Text = raw
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		// Objects, arrays and booleans render as no price.
		return nil
	}
	p.Value = value
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.Text != "" {
		return json.Marshal(p.Text)
	}
	return json.Marshal(p.Value)
}

// String formats the price for display with two decimals.
func (p Price) String() string {
	if p.Text != "" {
		return p.Text
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// Rotation is one slot of the screen's template rotation.
type Rotation struct {
	TemplateID         string `json:"template_id"`
	TemplateName       string `json:"template_name,omitempty"`
	TemplateType       string `json:"template_type,omitempty"`
	DisplayDuration    int    `json:"display_duration"`
	DisplayOrder       int    `json:"display_order"`
	TransitionEffect   string `json:"transition_effect,omitempty"`
	TransitionDuration int    `json:"transition_duration,omitempty"`
	BlockCount         int    `json:"block_count,omitempty"`
}

type Template struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	TemplateType string          `json:"template_type,omitempty"`
	BlockCount   int             `json:"block_count,omitempty"`
	CanvasDesign json.RawMessage `json:"canvas_design,omitempty"`
	CanvasJSON   json.RawMessage `json:"canvas_json,omitempty"`
}

// HasCanvasDesign reports whether the template carries a canvas document.
func (t *Template) HasCanvasDesign() bool {
	return t != nil && present(t.CanvasDesign)
}

// IsFullEditor reports whether the template is a full-editor canvas.
func (t *Template) IsFullEditor() bool {
	return t != nil && t.TemplateType == "full_editor" && present(t.CanvasJSON)
}

type Block struct {
	ID              string          `json:"id"`
	TemplateBlockID string          `json:"template_block_id,omitempty"`
	BlockIndex      int             `json:"block_index"`
	PositionX       *float64        `json:"position_x,omitempty"`
	PositionY       *float64        `json:"position_y,omitempty"`
	Width           *float64        `json:"width,omitempty"`
	Height          *float64        `json:"height,omitempty"`
	StyleConfig     json.RawMessage `json:"style_config,omitempty"`
}

type BlockContent struct {
	ID              string     `json:"id"`
	ScreenBlockID   string     `json:"screen_block_id,omitempty"`
	TemplateBlockID string     `json:"template_block_id,omitempty"`
	ContentType     string     `json:"content_type,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	Title           string     `json:"title,omitempty"`
	CampaignText    string     `json:"campaign_text,omitempty"`
	BackgroundColor string     `json:"background_color,omitempty"`
	TextColor       string     `json:"text_color,omitempty"`
	MenuItem        *MenuItem  `json:"menu_item,omitempty"`
	MenuItems       []MenuItem `json:"menu_items,omitempty"`
}

// DigitalMenu is the resolved layer design of a digital-menu rotation slot.
type DigitalMenu struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	TemplateID      string  `json:"templateId"`
	BackgroundImage *string `json:"backgroundImage"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Layers          []Layer `json:"layers"`
}

type Layer struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	X            float64        `json:"x"`
	Y            float64        `json:"y"`
	Width        float64        `json:"width"`
	Height       float64        `json:"height"`
	Rotation     float64        `json:"rotation,omitempty"`
	DisplayOrder int            `json:"displayOrder,omitempty"`
	ContentText  string         `json:"contentText,omitempty"`
	FontSize     float64        `json:"fontSize,omitempty"`
	FontFamily   string         `json:"fontFamily,omitempty"`
	FontStyle    string         `json:"fontStyle,omitempty"`
	Color        string         `json:"color,omitempty"`
	Align        string         `json:"align,omitempty"`
	ImageURL     *string        `json:"imageUrl,omitempty"`
	Style        map[string]any `json:"style,omitempty"`
}

// Valid reports whether the snapshot describes an existing screen.
func (s *Snapshot) Valid() bool {
	return s != nil && !s.NotFound && s.Screen != nil
}

// SlotCount is the length of the rotation list.
func (s *Snapshot) SlotCount() int {
	if s == nil {
		return 0
	}
	return len(s.TemplateRotations)
}

// Slot returns the rotation at index, or false when out of range.
func (s *Snapshot) Slot(index int) (Rotation, bool) {
	if s == nil || index < 0 || index >= len(s.TemplateRotations) {
		return Rotation{}, false
	}
	return s.TemplateRotations[index], true
}

// BusinessName returns the screen's business name, if any.
func (s *Snapshot) BusinessName() string {
	if s == nil || s.Screen == nil {
		return ""
	}
	return s.Screen.BusinessName
}

// Language returns the screen language code, defaulting to English.
func (s *Snapshot) Language() string {
	if s == nil || s.Screen == nil || s.Screen.LanguageCode == "" {
		return "en"
	}
	return s.Screen.LanguageCode
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
