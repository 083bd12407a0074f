package blog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>coffeelab</title>
  <item>
    <title><![CDATA[홈카페 원두 추천]]></title>
    <link>https://blog.naver.com/coffeelab/223000000001?fromRss=true&amp;trackingCode=rss</link>
    <guid>https://blog.naver.com/coffeelab/223000000001</guid>
  </item>
  <item>
    <title>라떼 아트 연습</title>
    <link></link>
    <guid>https://blog.naver.com/coffeelab/223000000002</guid>
  </item>
  <item>
    <title>카테고리 공지</title>
    <link>https://blog.naver.com/coffeelab?categoryNo=3</link>
  </item>
  <item>
    <title></title>
    <link>https://blog.naver.com/coffeelab/223000000004</link>
  </item>
</channel>
</rss>`

func TestParseFeed(t *testing.T) {
	t.Parallel()

	posts, err := ParseFeed([]byte(sampleFeed))
	require.NoError(t, err)
	require.Equal(t, []Post{
		{Title: "홈카페 원두 추천", PostID: "223000000001", URL: "https://blog.naver.com/coffeelab/223000000001"},
		{Title: "라떼 아트 연습", PostID: "223000000002", URL: "https://blog.naver.com/coffeelab/223000000002"},
	}, posts)
}

func TestParseFeedMalformed(t *testing.T) {
	t.Parallel()

	_, err := ParseFeed([]byte("<rss><channel></item></channel></rss>"))
	require.Error(t, err)
}

func TestFeedSourcePosts(t *testing.T) {
	t.Parallel()

	f := &routeFetcher{bodies: map[string]string{
		"https://rss.blog.naver.com/coffeelab.xml": sampleFeed,
	}}
	src := NewFeedSource(f, "", "")
	listing := src.Posts(context.Background(), "coffeelab")
	require.NoError(t, listing.Err)
	require.Len(t, listing.Posts, 2)
	require.NotEmpty(t, f.requests[0].Headers.Get("User-Agent"))
	require.Equal(t, "feed", src.Name())
}

func TestFeedSourceFetchFailure(t *testing.T) {
	t.Parallel()

	f := &routeFetcher{err: errors.New("connection reset")}
	listing := NewFeedSource(f, "", "").Posts(context.Background(), "coffeelab")
	require.ErrorContains(t, listing.Err, "connection reset")
	require.Empty(t, listing.Posts)
}
