package blog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePostList = `<html><body>
<div class="blog2_list">
  <a href="/PostView.naver?blogId=coffeelab&logNo=1">첫 글</a>
  <a href="/coffeelab/223000000010"><span>핸드드립</span> <strong>입문</strong></a>
  <a href="https://blog.naver.com/coffeelab/223000000011?from=postList">라떼 아트 연습</a>
  <a href="/coffeelab/223000000012"><img src="thumb.jpg"></a>
  <a href="/coffeelab/category/7/">카테고리</a>
</div>
</body></html>`

func TestParseListing(t *testing.T) {
	t.Parallel()

	posts, err := ParseListing("coffeelab", []byte(samplePostList))
	require.NoError(t, err)
	require.Equal(t, []Post{
		{Title: "핸드드립입문", PostID: "223000000010", URL: "https://blog.naver.com/coffeelab/223000000010"},
		{Title: "라떼 아트 연습", PostID: "223000000011", URL: "https://blog.naver.com/coffeelab/223000000011"},
	}, posts)
}

func TestListingSourceRequest(t *testing.T) {
	t.Parallel()

	url := "https://blog.naver.com/PostList.naver?blogId=coffeelab&categoryNo=0&from=postList"
	f := &routeFetcher{bodies: map[string]string{url: samplePostList}}
	src := NewListingSource(f, "", "agent")
	listing := src.Posts(context.Background(), "coffeelab")
	require.NoError(t, listing.Err)
	require.Len(t, listing.Posts, 2)
	require.Equal(t, "agent", f.requests[0].Headers.Get("User-Agent"))
	require.Equal(t, "https://blog.naver.com/coffeelab", f.requests[0].Headers.Get("Referer"))
}
