package engine

import (
	"fmt"
	"strings"
)

// Assemble 按顺序拼接各搜索词的摘要，编号从 1 开始
func Assemble(summaries []string) string {
	sections := make([]string, len(summaries))
	for i, s := range summaries {
		sections[i] = fmt.Sprintf("# Research Report %d\n%s", i+1, s)
	}
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}
