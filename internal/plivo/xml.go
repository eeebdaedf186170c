package plivo

import (
	"fmt"
	"strings"
)

// xmlEscaper handles the five XML metacharacters. A single pass is enough;
// strings.Replacer never rescans replaced text.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

const answerXMLTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Stream keepCallAlive="true" bidirectional="true"
            contentType="audio/x-l16;rate=16000">%s</Stream>
</Response>`

// AnswerXML renders the call-flow document that tells Plivo to open a
// bidirectional 16kHz 16-bit linear-PCM stream to joinURL. keepCallAlive
// keeps the call up while the stream connects. The join URL is escaped so a
// hostile or malformed URL cannot break out of the element.
func AnswerXML(joinURL string) string {
	return fmt.Sprintf(answerXMLTemplate, xmlEscaper.Replace(joinURL))
}

// SpeakXML renders a single Speak instruction with text escaped.
func SpeakXML(text, voice, language string) string {
	return fmt.Sprintf(`<Response><Speak voice="%s" language="%s">%s</Speak></Response>`,
		xmlEscaper.Replace(voice), xmlEscaper.Replace(language), xmlEscaper.Replace(text))
}
