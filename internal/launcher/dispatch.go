package launcher

import (
	"encoding/json"

	"github.com/p-blackswan/fluxdock/internal/flux"
)

// Target app ids.
const (
	AppProjects = "projects"
	AppPersonas = "personas"
	AppIdeas    = "ideas"
	AppSlides   = "slides"
	AppFrame    = "frame"
	AppWriter   = "writer"
	AppMotion   = "motion"
	AppMindMap  = "mindmap"
	AppCode     = "code"
	AppCalendar = "calendar"
	AppBrand    = "brand"
	AppFlux     = "flux"
)

// Shape selects how an artifact is repackaged for its target app.
type Shape int

const (
	ShapeGeneric Shape = iota // {initialResult, prompt?}
	ShapeFrame                // {initialProjectCodes: {html, css, js}}
	ShapeText                 // {prompt: excerpt, initialResult: full text}
	ShapeCode                 // {initialFile: {code, language}}
	ShapeBrand                // {initialPalette, initialTone}
)

// Route is where an artifact kind is launched and how its payload is shaped.
type Route struct {
	App   string
	Shape Shape
}

// RouteFor maps an artifact kind to its target app. Unknown kinds report
// false and must be skipped.
func RouteFor(k flux.Kind) (Route, bool) {
	switch k {
	case flux.KindProjectPlan:
		return Route{App: AppProjects, Shape: ShapeGeneric}, true
	case flux.KindPersonas:
		return Route{App: AppPersonas, Shape: ShapeGeneric}, true
	case flux.KindIdeas:
		return Route{App: AppIdeas, Shape: ShapeGeneric}, true
	case flux.KindDeck:
		return Route{App: AppSlides, Shape: ShapeGeneric}, true
	case flux.KindFrame:
		return Route{App: AppFrame, Shape: ShapeFrame}, true
	case flux.KindText:
		return Route{App: AppWriter, Shape: ShapeText}, true
	case flux.KindMotion:
		return Route{App: AppMotion, Shape: ShapeGeneric}, true
	case flux.KindMindMap:
		return Route{App: AppMindMap, Shape: ShapeGeneric}, true
	case flux.KindCode:
		return Route{App: AppCode, Shape: ShapeCode}, true
	case flux.KindAgenda:
		return Route{App: AppCalendar, Shape: ShapeGeneric}, true
	case flux.KindPalette, flux.KindTone:
		return Route{App: AppBrand, Shape: ShapeBrand}, true
	}
	return Route{}, false
}

const (
	promptExcerptRunes = 80
	defaultLanguage    = "plaintext"
)

// ShapePayload builds the props for a single-artifact route. Artifacts that do not
// fit the route's shape fall back to the generic payload. ShapeBrand takes
// its inputs from BrandPayload instead.
func ShapePayload(route Route, raw json.RawMessage, prompt string) map[string]any {
	switch route.Shape {
	case ShapeFrame:
		if props, ok := framePayload(raw); ok {
			return props
		}
	case ShapeText:
		if props, ok := textPayload(raw); ok {
			return props
		}
	case ShapeCode:
		if props, ok := codePayload(raw); ok {
			return props
		}
	}
	return GenericPayload(raw, prompt)
}

// GenericPayload passes the artifact through unchanged as initialResult.
func GenericPayload(raw json.RawMessage, prompt string) map[string]any {
	props := map[string]any{"initialResult": decode(raw)}
	if prompt != "" {
		props["prompt"] = prompt
	}
	return props
}

// BrandPayload packages palette and tone together. Both keys are always set;
// a missing artifact is nil.
func BrandPayload(palette, tone json.RawMessage) map[string]any {
	return map[string]any{
		"initialPalette": decode(palette),
		"initialTone":    decode(tone),
	}
}

func framePayload(raw json.RawMessage) (map[string]any, bool) {
	var f struct {
		HTML string `json:"html"`
		CSS  string `json:"css"`
		JS   string `json:"js"`
	}
	if !isObject(raw) || json.Unmarshal(raw, &f) != nil {
		return nil, false
	}
	return map[string]any{
		"initialProjectCodes": map[string]any{
			"html": f.HTML,
			"css":  f.CSS,
			"js":   f.JS,
		},
	}, true
}

func textPayload(raw json.RawMessage) (map[string]any, bool) {
	var text string
	if json.Unmarshal(raw, &text) != nil {
		return nil, false
	}
	return map[string]any{
		"prompt":        excerpt(text, promptExcerptRunes),
		"initialResult": text,
	}, true
}

func codePayload(raw json.RawMessage) (map[string]any, bool) {
	var file struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	var plain string
	switch {
	case isObject(raw) && json.Unmarshal(raw, &file) == nil:
	case json.Unmarshal(raw, &plain) == nil:
		file.Code = plain
	default:
		return nil, false
	}
	if file.Language == "" {
		file.Language = defaultLanguage
	}
	return map[string]any{
		"initialFile": map[string]any{
			"code":     file.Code,
			"language": file.Language,
		},
	}, true
}

// excerpt cuts s to n runes, marking the cut with an ellipsis.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func decode(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
