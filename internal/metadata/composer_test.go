package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-preprocessor/internal/document"
	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// stubLocator 按页返回预设的定位框
type stubLocator struct {
	boxes map[int][]models.BoundingBox
	pages int
	calls int
}

func (l *stubLocator) Locate(_ string, page int) ([]models.BoundingBox, bool) {
	l.calls++
	if page < 1 || page > l.pages {
		return nil, false
	}
	return l.boxes[page], true
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 9, 30, 0, 0, time.FixedZone("KST", 9*3600))
}

func chunkSet(pages ...int) *document.ChunkSet {
	set := &document.ChunkSet{Kind: document.FormatPDF, PageCounts: map[int]int{}}
	for i, p := range pages {
		set.Chunks = append(set.Chunks, models.Chunk{Text: "chunk text\nsecond line", Page: p, Index: i})
		set.PageCounts[p]++
	}
	return set
}

func TestCompose(t *testing.T) {
	set := chunkSet(1, 1, 2, 3, 3, 3)
	locator := &stubLocator{
		pages: 2,
		boxes: map[int][]models.BoundingBox{
			1: {{Page: 1, Type: models.ContentTypeText, BBox: models.Rect{L: 0.1, T: 0.1, R: 0.5, B: 0.2}}},
		},
	}

	records, err := NewComposer(WithClock(fixedClock)).Compose(set, locator)
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, 6, locator.calls)

	sumOfPageCounts := 0
	for _, n := range set.PageCounts {
		sumOfPageCounts += n
	}

	wantOnPage := []int{0, 1, 0, 0, 1, 2}
	wantOfPage := []int{2, 2, 1, 3, 3, 3}
	for i, r := range records {
		assert.Equal(t, wantOnPage[i], r.IChunkOnPage, "record %d", i)
		assert.Equal(t, wantOfPage[i], r.NChunkOfPage, "record %d", i)
		assert.Equal(t, i, r.IChunkOnDoc)
		assert.Equal(t, len(records), r.NChunkOfDoc)
		assert.Equal(t, sumOfPageCounts, r.NChunkOfDoc)
		assert.Equal(t, 3, r.NPage)
		assert.Equal(t, "2024-03-05T00:30:00Z", r.RegDate)
		assert.LessOrEqual(t, r.IPage, r.EPage)
		assert.Equal(t, 22, r.NChar)
		assert.Equal(t, 4, r.NWord)
		assert.Equal(t, 2, r.NLine)
		assert.Equal(t, "[]", r.MediaFiles)
	}

	boxes, err := records[0].DecodeBBoxes()
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, 1, records[0].IPage)

	// 第2页在 PDF 中但没有命中；第3页超出 PDF 页数
	assert.Equal(t, "[]", records[2].ChunkBBoxes)
	assert.Equal(t, 2, records[2].IPage)
	assert.Equal(t, "[]", records[3].ChunkBBoxes)
	assert.Equal(t, 3, records[3].IPage)
	assert.Equal(t, 3, records[3].EPage)
}

func TestComposeMultiPageSpan(t *testing.T) {
	set := chunkSet(2)
	locator := &stubLocator{
		pages: 5,
		boxes: map[int][]models.BoundingBox{
			2: {
				{Page: 3, Type: models.ContentTypeText},
				{Page: 2, Type: models.ContentTypeText},
				{Page: 4, Type: models.ContentTypeText},
			},
		},
	}

	records, err := NewComposer().Compose(set, locator)
	require.NoError(t, err)
	assert.Equal(t, 2, records[0].IPage)
	assert.Equal(t, 4, records[0].EPage)
}

func TestComposeWithoutLocator(t *testing.T) {
	records, err := NewComposer().Compose(chunkSet(4, 4), nil)
	require.NoError(t, err)
	for _, r := range records {
		assert.Equal(t, 4, r.IPage)
		assert.Equal(t, 4, r.EPage)
		assert.Equal(t, "[]", r.ChunkBBoxes)
	}
}

func TestAttachMedia(t *testing.T) {
	records, err := NewComposer().Compose(chunkSet(1, 2), nil)
	require.NoError(t, err)

	images := map[int][]models.PageImage{
		1: {{Name: "a.png", Type: models.ContentTypeImage, Page: 1}},
	}
	require.NoError(t, AttachMedia(records, images))

	got, err := records[0].DecodeMediaFiles()
	require.NoError(t, err)
	assert.Equal(t, images[1], got)
	assert.Equal(t, "[]", records[1].MediaFiles)
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\r\ntwo\r\n", 2},
		{"\n\n", 2},
		{"a\rb\u2028c", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CountLines(tt.in), "%q", tt.in)
	}
}
