package search

import "fmt"

// Entry is one blog article found on a search results page.
type Entry struct {
	Rank          int    `json:"rank"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	NormalizedURL string `json:"-"`
	PostID        string `json:"-"`
	Description   string `json:"description,omitempty"`
	BlogName      string `json:"blog_name,omitempty"`
	Date          string `json:"date,omitempty"`
}

// ExposureResult is the outcome of one exposure check. Success=false means
// the check was indeterminate; it does not mean the article is absent.
type ExposureResult struct {
	Success      bool    `json:"success"`
	Keyword      string  `json:"keyword"`
	IsExposed    bool    `json:"is_exposed"`
	ExposedRank  *int    `json:"exposed_rank"`
	ExposedEntry *Entry  `json:"exposed_result"`
	TotalResults int     `json:"total_results"`
	Results      []Entry `json:"results"`
	Message      string  `json:"message"`
}

const (
	msgTimeout   = "요청 시간이 초과되었습니다. 잠시 후 다시 시도해주세요."
	msgNoEntries = "검색 결과에서 블로그 글을 찾을 수 없습니다."
)

func placeholderTitle(rank int) string {
	return fmt.Sprintf("블로그 글 #%d", rank)
}

func exposedMessage(rank int) string {
	return fmt.Sprintf("입력한 글이 %d위에 노출됩니다!", rank)
}

func notExposedMessage(total int) string {
	return fmt.Sprintf("입력한 글이 상위 %d개 결과에 노출되지 않습니다.", total)
}

func networkMessage(err error) string {
	return fmt.Sprintf("네트워크 오류가 발생했습니다: %v", err)
}

func failureMessage(err error) string {
	return fmt.Sprintf("오류가 발생했습니다: %v", err)
}
