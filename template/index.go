package template

// Bundle is the content of a built reader shell.
type Bundle struct {
	Version string
	Package string
	Debug   bool
	Style   string
	Script  string
}

func (b Bundle) versionInfo() map[string]any {
	return map[string]any{
		"git":     b.Version,
		"package": b.Package,
		"debug":   b.Debug,
	}
}

func (b Bundle) inlineStyle() string {
	return "<style>" + b.Style + "</style>"
}

func (b Bundle) inlineScript() string {
	return "<script>" + b.Script + "</script>"
}
