package components

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
)

// NewDefaultRegistry constructs a registry pre-populated with the built-in
// controls, one per render.Widget.
func NewDefaultRegistry() *Registry {
	registry := New()

	registry.MustRegister(string(render.WidgetInput), Descriptor{Renderer: inputRenderer})
	registry.MustRegister(string(render.WidgetToggle), Descriptor{Renderer: toggleRenderer})
	registry.MustRegister(string(render.WidgetRadio), Descriptor{Renderer: radioRenderer})
	registry.MustRegister(string(render.WidgetDropdown), Descriptor{Renderer: dropdownRenderer})
	registry.MustRegister(string(render.WidgetCheckbox), Descriptor{Renderer: checkboxRenderer})
	registry.MustRegister(string(render.WidgetRange), Descriptor{Renderer: rangeRenderer})
	registry.MustRegister(string(render.WidgetTextarea), Descriptor{Renderer: textareaRenderer})

	return registry
}

// reserved attributes are written by the controls themselves.
var reserved = map[string]struct{}{
	"id": {}, "name": {}, "type": {}, "value": {}, "checked": {}, "class": {},
}

func inputRenderer(buf *bytes.Buffer, props render.Props) error {
	cfg := props.Config
	buf.WriteString(`<input`)
	writeAttr(buf, "type", string(cfg.Kind.Normalize()))
	writeCommon(buf, props)
	if props.Defined {
		writeAttr(buf, "value", FormatValue(props.Value))
	}
	writeAttrIf(buf, "placeholder", cfg.Placeholder)
	writeAttrIf(buf, "min", cfg.Min)
	writeAttrIf(buf, "max", cfg.Max)
	writeAttrIf(buf, "step", cfg.Step)
	writeExtra(buf, cfg.Attributes)
	buf.WriteString(`>`)
	return nil
}

// toggleRenderer emits a checkbox paired with an empty label the
// stylesheet turns into a switch. The hidden input submits "false" when the
// box is unchecked.
func toggleRenderer(buf *bytes.Buffer, props render.Props) error {
	cfg := props.Config
	on := Truthy(props.Value)

	buf.WriteString(`<input type="hidden"`)
	writeAttr(buf, "name", cfg.ResultPath)
	buf.WriteString(` value="false">`)

	buf.WriteString(`<input type="checkbox"`)
	writeCommon(buf, props)
	buf.WriteString(` value="true"`)
	if on {
		buf.WriteString(` checked`)
	}
	writeAttr(buf, "data-next-value", strconv.FormatBool(!on))
	writeExtra(buf, cfg.Attributes)
	buf.WriteString(`>`)

	buf.WriteString(`<label`)
	writeAttr(buf, "for", props.ElementID)
	buf.WriteString(`></label>`)
	return nil
}

// radioRenderer writes an empty group when the config has no options.
func radioRenderer(buf *bytes.Buffer, props render.Props) error {
	cfg := props.Config
	current := FormatValue(props.Value)

	buf.WriteString(`<div class="radio-group" role="radiogroup"`)
	writeAttrIf(buf, "id", props.ElementID)
	buf.WriteString(`>`)
	for idx, option := range cfg.Options {
		optionID := optionElementID(props.ElementID, idx)
		buf.WriteString(`<label class="radio-option"><input type="radio"`)
		writeAttrIf(buf, "id", optionID)
		writeAttr(buf, "name", cfg.ResultPath)
		writeAttr(buf, "value", option.Value)
		if props.Defined && option.Value == current {
			buf.WriteString(` checked`)
		}
		writeRequired(buf, cfg)
		writeExtra(buf, cfg.Attributes)
		buf.WriteString(`><span>`)
		buf.WriteString(html.EscapeString(option.Text()))
		buf.WriteString(`</span></label>`)
	}
	buf.WriteString(`</div>`)
	return nil
}

func dropdownRenderer(buf *bytes.Buffer, props render.Props) error {
	cfg := props.Config
	current := FormatValue(props.Value)

	buf.WriteString(`<select`)
	writeCommon(buf, props)
	writeExtra(buf, cfg.Attributes)
	buf.WriteString(`>`)
	buf.WriteString(`<option value="">`)
	buf.WriteString(html.EscapeString(cfg.Placeholder))
	buf.WriteString(`</option>`)
	for _, option := range cfg.Options {
		buf.WriteString(`<option`)
		writeAttr(buf, "value", option.Value)
		if props.Defined && option.Value == current {
			buf.WriteString(` selected`)
		}
		buf.WriteString(`>`)
		buf.WriteString(html.EscapeString(option.Text()))
		buf.WriteString(`</option>`)
	}
	buf.WriteString(`</select>`)
	return nil
}

// checkboxRenderer renders one box per option submitting under the same
// name. Without options it degrades to a single boolean box.
func checkboxRenderer(buf *bytes.Buffer, props render.Props) error {
	cfg := props.Config
	if len(cfg.Options) == 0 {
		buf.WriteString(`<input type="hidden"`)
		writeAttr(buf, "name", cfg.ResultPath)
		buf.WriteString(` value="false"><input type="checkbox"`)
		writeCommon(buf, props)
		buf.WriteString(` value="true"`)
		if Truthy(props.Value) {
			buf.WriteString(` checked`)
		}
		writeExtra(buf, cfg.Attributes)
		buf.WriteString(`>`)
		return nil
	}

	selected := make(map[string]struct{})
	for _, value := range Values(props.Value) {
		selected[value] = struct{}{}
	}

	buf.WriteString(`<div class="checkbox-group"`)
	writeAttrIf(buf, "id", props.ElementID)
	buf.WriteString(`>`)
	for idx, option := range cfg.Options {
		buf.WriteString(`<label class="checkbox-option"><input type="checkbox"`)
		writeAttrIf(buf, "id", optionElementID(props.ElementID, idx))
		writeAttr(buf, "name", cfg.ResultPath)
		writeAttr(buf, "value", option.Value)
		if _, ok := selected[option.Value]; ok {
			buf.WriteString(` checked`)
		}
		writeExtra(buf, cfg.Attributes)
		buf.WriteString(`><span>`)
		buf.WriteString(html.EscapeString(option.Text()))
		buf.WriteString(`</span></label>`)
	}
	buf.WriteString(`</div>`)
	return nil
}

func rangeRenderer(buf *bytes.Buffer, props render.Props) error {
	cfg := props.Config
	buf.WriteString(`<input type="range"`)
	writeCommon(buf, props)
	if props.Defined {
		writeAttr(buf, "value", FormatValue(props.Value))
	}
	writeAttrIf(buf, "min", cfg.Min)
	writeAttrIf(buf, "max", cfg.Max)
	writeAttrIf(buf, "step", cfg.Step)
	writeExtra(buf, cfg.Attributes)
	buf.WriteString(`>`)
	if props.Defined {
		buf.WriteString(`<output`)
		writeAttrIf(buf, "for", props.ElementID)
		buf.WriteString(`>`)
		buf.WriteString(html.EscapeString(FormatValue(props.Value)))
		buf.WriteString(`</output>`)
	}
	return nil
}

func textareaRenderer(buf *bytes.Buffer, props render.Props) error {
	cfg := props.Config
	buf.WriteString(`<textarea`)
	writeCommon(buf, props)
	if cfg.Rows > 0 {
		writeAttr(buf, "rows", strconv.Itoa(cfg.Rows))
	}
	writeAttrIf(buf, "placeholder", cfg.Placeholder)
	writeExtra(buf, cfg.Attributes)
	buf.WriteString(`>`)
	if props.Defined {
		buf.WriteString(html.EscapeString(FormatValue(props.Value)))
	}
	buf.WriteString(`</textarea>`)
	return nil
}

func writeCommon(buf *bytes.Buffer, props render.Props) {
	writeAttrIf(buf, "id", props.ElementID)
	writeAttr(buf, "name", props.Config.ResultPath)
	writeRequired(buf, props.Config)
}

func writeRequired(buf *bytes.Buffer, cfg model.Config) {
	if cfg.Required != nil {
		buf.WriteString(` aria-required="true"`)
	}
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(html.EscapeString(value))
	buf.WriteByte('"')
}

func writeAttrIf(buf *bytes.Buffer, name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	writeAttr(buf, name, value)
}

// writeExtra emits caller attributes in key order. Empty values render as
// boolean attributes.
func writeExtra(buf *bytes.Buffer, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		name := strings.ToLower(strings.TrimSpace(key))
		if name == "" || !validAttrName(name) {
			continue
		}
		if _, skip := reserved[name]; skip {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		name := strings.ToLower(strings.TrimSpace(key))
		if attrs[key] == "" {
			buf.WriteByte(' ')
			buf.WriteString(name)
			continue
		}
		writeAttr(buf, name, attrs[key])
	}
}

func validAttrName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == ':':
		default:
			return false
		}
	}
	return true
}

func optionElementID(base string, idx int) string {
	if base == "" {
		return ""
	}
	return base + "_" + strconv.Itoa(idx)
}

// FormatValue renders a store value as an attribute or text value.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// Truthy reports whether a store value switches a toggle on.
func Truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		on, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && on
	}
	return false
}

// Values flattens a multi-value store entry into strings.
func Values(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, FormatValue(item))
		}
		return out
	}
	return []string{FormatValue(value)}
}
