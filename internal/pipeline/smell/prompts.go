package smell

import (
	"fmt"
	"strings"

	"smellfix/internal/util/jsonutil"
)

const detectTemplate = `You are an expert analyzing **%[1]s** code for design smells.
Analyze the following **%[1]s** code and list any **design smells**.
Return a **valid JSON** response.

**Primary Code:**
%[2]s

**Additional Context (if available):**
%[3]s

Expected JSON format:
{
  "issues": ["Issue 1", "Issue 2", ...]
}
`

const refactorTemplate = `You are an expert refactoring assistant.
Refactor and **Modify** the following **%[1]s** code to **remove design smells**:
%[2]s

**Detected issues:**
%[3]s

%[4]s

**Rules:**
- Follow best practices for the **%[1]s** language.
- **Ensure logic between files remains intact.** Do not remove or rename functions/methods if they are used elsewhere.
- Maintain **cross-file dependencies**. If a function in File A is used in File B, it must still work after refactoring.
- Keep the code **modular, maintainable, and efficient**.
- **Return only valid JSON**, no explanations, no extra text, no markdown.

Return **ONLY valid JSON with format**:
{
  "refactored_code": "<new improved code>"
}
`

// BuildDetectPrompt renders the smell-detection request.
func BuildDetectPrompt(language, code, contextCode string) string {
	return fmt.Sprintf(detectTemplate, language, code, contextCode)
}

// BuildRefactorPrompt renders the refactor request. contextBlock is either
// empty or the output of ContextBlock.
func BuildRefactorPrompt(language, code string, issues []string, contextBlock string) string {
	if issues == nil {
		issues = []string{}
	}
	b, err := jsonutil.MarshalIndentNoEscape(issues, "  ")
	if err != nil {
		b = []byte("[]")
	}
	return fmt.Sprintf(refactorTemplate, language, code, strings.TrimRight(string(b), "\n"), contextBlock)
}

// ContextBlock labels another file's source for the refactor prompt.
func ContextBlock(path, code string) string {
	return fmt.Sprintf("\n\n### Additional Context from %s ###\n%s", path, code)
}

// LanguageFor names the language of files with the given extension.
func LanguageFor(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "java":
		return "Java"
	case "py":
		return "Python"
	case "cpp", "cc", "cxx", "hpp", "h":
		return "C++"
	case "go":
		return "Go"
	case "kt":
		return "Kotlin"
	case "":
		return "source"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}
