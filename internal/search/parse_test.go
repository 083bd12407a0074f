package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<ul class="lst_view">
  <li class="bx">
    <div class="user_box"><span class="sub_time">3일 전</span></div>
    <a class="title_link" href="https://blog.naver.com/beanhouse/111">원두 <b>커피</b> 추천</a>
    <div class="dsc_txt">산미 있는 원두 모음</div>
  </li>
  <li class="bx">
    <a class="title_link" href="https://m.blog.naver.com/coffeelab/123456"></a>
    <span class="api_txt_lines desc">홈카페 입문</span>
    <span class="date">2024.02.11.</span>
  </li>
  <li class="bx">
    <a href="https://blog.naver.com/coffeelab/123456/">중복 링크</a>
    <a href="https://blog.naver.com/coffeelab">블로그 홈</a>
    <a href="https://cafe.naver.com/beans/42">카페 글</a>
    <a href="https://blog.naver.com/roaster/222?from=search">로스팅 일지</a>
  </li>
</ul>
</body></html>`

func TestParseResults(t *testing.T) {
	t.Parallel()

	entries, err := ParseResults([]byte(resultsPage))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	first := entries[0]
	require.Equal(t, 1, first.Rank)
	require.Equal(t, "원두커피추천", first.Title)
	require.Equal(t, "111", first.PostID)
	require.Equal(t, "산미 있는 원두 모음", first.Description)
	require.Equal(t, "3일 전", first.Date)

	second := entries[1]
	require.Equal(t, 2, second.Rank)
	require.Equal(t, "블로그 글 #2", second.Title)
	require.Equal(t, "https://m.blog.naver.com/coffeelab/123456", second.URL)
	require.Equal(t, "blog.naver.com/coffeelab/123456", second.NormalizedURL)
	require.Equal(t, "홈카페 입문", second.Description)
	require.Equal(t, "2024.02.11.", second.Date)

	third := entries[2]
	require.Equal(t, 3, third.Rank)
	require.Equal(t, "222", third.PostID)
	require.Equal(t, "로스팅 일지", third.Title)
}

func TestParseResultsDenseRanks(t *testing.T) {
	t.Parallel()

	page := `<div>
<a href="https://blog.naver.com/a/1">a</a>
<a href="https://blog.naver.com/a/1">a again</a>
<a href="https://m.blog.naver.com/a/1">a mobile</a>
<a href="https://blog.naver.com/b/2">b</a>
<a href="https://blog.naver.com/a/1/">a slash</a>
<a href="https://blog.naver.com/c/3">c</a>
</div>`
	entries, err := ParseResults([]byte(page))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		require.Equal(t, i+1, entry.Rank)
	}
	require.Equal(t, []string{"1", "2", "3"}, []string{entries[0].PostID, entries[1].PostID, entries[2].PostID})
}

func TestParseResultsNoBlogLinks(t *testing.T) {
	t.Parallel()

	entries, err := ParseResults([]byte(`<html><body><a href="https://news.naver.com/1">news</a></body></html>`))
	require.NoError(t, err)
	require.Empty(t, entries)
}
