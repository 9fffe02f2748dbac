package cms

import "bytes"

var (
	headClose = []byte("</head>")
	bodyClose = []byte("</body>")
)

// InjectScripts inserts snippet before the first </head>, or before the
// first </body> when there is no head. A document with neither is returned
// unchanged.
func InjectScripts(html []byte, snippet string) []byte {
	if snippet == "" {
		return html
	}
	idx := bytes.Index(html, headClose)
	if idx < 0 {
		idx = bytes.Index(html, bodyClose)
	}
	if idx < 0 {
		return html
	}

	out := make([]byte, 0, len(html)+len(snippet))
	out = append(out, html[:idx]...)
	out = append(out, snippet...)
	out = append(out, html[idx:]...)
	return out
}
