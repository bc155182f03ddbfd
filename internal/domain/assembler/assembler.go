package assembler

import (
	"strings"

	"github.com/GriffinCanCode/minicode/internal/domain/source"
)

// Title is the fixed title of every preview document
const Title = "MiniCode Preview"

// Assemble builds the preview document for a state.
func Assemble(state source.State) string {
	var b strings.Builder
	b.Grow(len(state.HTML) + len(state.CSS) + len(state.JS) + len(Instrumentation) + 512)

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"en\">\n")
	b.WriteString("<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	b.WriteString("  <title>" + Title + "</title>\n")
	b.WriteString("  <style>\n")
	b.WriteString(state.CSS)
	b.WriteString("\n  </style>\n")
	b.WriteString("</head>\n")
	b.WriteString("<body>\n")
	b.WriteString(ExtractBody(state.HTML))
	b.WriteString("\n  <script>\n")
	b.WriteString(Instrumentation)
	b.WriteString("  </script>\n")
	b.WriteString("  <script>\n")
	b.WriteString(GuardScript(state.JS))
	b.WriteString("  </script>\n")
	b.WriteString("</body>\n")
	b.WriteString("</html>\n")

	return b.String()
}

// GuardScript wraps user code so a thrown error is reported through the
// console instead of escaping to the page.
func GuardScript(js string) string {
	return "try {\n" + js + "\n} catch (error) {\n" +
		"  console.error('JavaScript execution error:', error && error.message !== undefined ? error.message : error);\n" +
		"}\n"
}
