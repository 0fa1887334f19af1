package template

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Placeholder is the single substitution point in a prompt template.
const Placeholder = "{{content}}"

// Type represents the built-in prompt profiles
type Type string

const (
	// Mimeng asks for Chinese headlines in the Mimeng style (default)
	Mimeng Type = "mimeng"
	// English asks for English headlines with English labels
	English Type = "english"
)

// Profile is a named prompt template.
type Profile struct {
	Type        Type
	Name        string
	Description string
	Text        string
}

// Prompt is an immutable prompt template with exactly one Placeholder.
type Prompt struct {
	source string
	name   string
	text   string
}

// ErrNoPlaceholder is returned when a template lacks the Placeholder token.
var ErrNoPlaceholder = errors.New("prompt template has no " + Placeholder + " placeholder")

// ErrRepeatedPlaceholder is returned when a template has more than one
// Placeholder token.
var ErrRepeatedPlaceholder = errors.New("prompt template has more than one " + Placeholder + " placeholder")

// New validates text and returns a Prompt. source is a label used in logs.
func New(source, text string) (Prompt, error) {
	switch strings.Count(text, Placeholder) {
	case 0:
		return Prompt{}, fmt.Errorf("%s: %w", source, ErrNoPlaceholder)
	case 1:
	default:
		return Prompt{}, fmt.Errorf("%s: %w", source, ErrRepeatedPlaceholder)
	}
	return Prompt{source: source, name: source, text: text}, nil
}

// Load reads a prompt template from path.
func Load(path string) (Prompt, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Prompt{}, fmt.Errorf("read prompt template: %w", err)
	}
	return New(path, string(b))
}

// FromProfile returns the built-in prompt for the given profile name.
func FromProfile(name string) Prompt {
	p := GetProfile(name)
	return Prompt{source: "profile:" + string(p.Type), name: p.Name, text: p.Text}
}

// Profiles lists the built-in profiles, default first.
func Profiles() []Profile {
	return []Profile{mimengProfile(), englishProfile()}
}

// Render substitutes content for the Placeholder.
func (p Prompt) Render(content string) string {
	return strings.Replace(p.text, Placeholder, content, 1)
}

// Overhead returns the template text without the placeholder, which is the
// fixed part of every rendered prompt.
func (p Prompt) Overhead() string {
	return strings.Replace(p.text, Placeholder, "", 1)
}

// Source describes where the template came from.
func (p Prompt) Source() string { return p.source }

// Name is the display name of a built-in profile, or the source for
// templates read from disk.
func (p Prompt) Name() string { return p.name }

// IsZero reports whether p was never initialised.
func (p Prompt) IsZero() bool { return p.text == "" }

// GetProfile returns the appropriate profile for the given name
func GetProfile(name string) Profile {
	switch Type(normalizeType(name)) {
	case English:
		return englishProfile()
	default:
		return mimengProfile()
	}
}

// normalizeType converts user input to a canonical Type value
func normalizeType(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "en", "english", "en-us", "en-gb":
		return string(English)
	case "", "mimeng", "default", "zh", "zh-cn", "chinese", "咪蒙":
		return string(Mimeng)
	default:
		if strings.HasPrefix(v, "en") {
			return string(English)
		}
		return string(Mimeng)
	}
}

func mimengProfile() Profile {
	return Profile{
		Type:        Mimeng,
		Name:        "咪蒙标题",
		Description: "Chinese WeChat-style headlines using the Mimeng headline rules",
		Text: `你是一位精通咪蒙标题方法论的资深新媒体编辑。请阅读下面的文章，为它创作 10 个最有传播力的标题，并按推荐程度从高到低排序。

创作时可以运用的法则包括：数字冲击力、反差对比、悬念好奇、情绪共鸣、身份代入、利益承诺、权威背书、反常识、紧迫感、口语化表达。

每个标题严格按照以下格式输出，不要输出其他内容：

**标题1:《标题内容》**
法则: 使用的法则
分析: 一句话说明这个标题为什么有效

要求：
- 每个标题 8 到 30 个字
- 标题必须忠于文章内容，不得捏造事实
- 不同标题尽量使用不同的法则

文章内容：
{{content}}
`,
	}
}

func englishProfile() Profile {
	return Profile{
		Type:        English,
		Name:        "English headlines",
		Description: "English headlines with method and analysis per headline",
		Text: `You are an experienced headline editor. Read the article below and write the 10 most compelling headlines for it, ranked from best to worst.

Use proven headline techniques such as concrete numbers, contrast, curiosity gaps, emotional resonance, reader identification, clear benefits, authority and urgency.

Output every headline in exactly this format and nothing else:

**Title 1: The headline text**
Method: the technique used
Analysis: one sentence on why the headline works

Rules:
- Each headline is 6 to 90 characters long
- Stay faithful to the article; never invent facts
- Prefer a different technique for each headline

Article:
{{content}}
`,
	}
}
