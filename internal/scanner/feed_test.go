package scanner

import (
	"context"
	"io"
	"strings"
	"testing"

	"go-goodhr-automation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceFeed(t *testing.T) {
	ctx := context.Background()
	f := NewSliceFeed(
		Item{Record: models.CandidateRecord{Name: "a"}},
		Item{Record: models.CandidateRecord{Name: "b"}},
	)

	first, err := f.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", first.Record.Name)

	second, err := f.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", second.Record.Name)

	_, err = f.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestJSONLFeed(t *testing.T) {
	input := `{"name":"张三","age":28,"education":"本科","university":"清华大学","extraInfo":[{"type":"期望职位","value":"销售"}],"target":{"x":420,"y":315},"key":"geek-1"}

{"name":"李四"}
`
	items, err := collect(context.Background(), NewJSONLFeed(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, items, 2)

	zs := items[0]
	assert.Equal(t, "张三", zs.Record.Name)
	require.NotNil(t, zs.Record.Age)
	assert.Equal(t, 28, *zs.Record.Age)
	assert.Equal(t, []models.ExtraInfo{{Type: "期望职位", Value: "销售"}}, zs.Record.ExtraInfo)
	assert.Equal(t, &models.Point{X: 420, Y: 315}, zs.Target)
	assert.Equal(t, "geek-1", zs.Key)

	ls := items[1]
	assert.Nil(t, ls.Record.Age)
	assert.Nil(t, ls.Target)
	assert.Empty(t, ls.Key)
}

func TestJSONLFeed_BadLine(t *testing.T) {
	f := NewJSONLFeed(strings.NewReader("{\"name\":\"ok\"}\n{oops\n"))
	_, err := f.Next(context.Background())
	require.NoError(t, err)

	_, err = f.Next(context.Background())
	assert.ErrorContains(t, err, "line 2")
}

func TestFeed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSliceFeed(Item{}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = NewJSONLFeed(strings.NewReader(`{}`)).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func collect(ctx context.Context, f Feed) ([]Item, error) {
	var items []Item
	for {
		item, err := f.Next(ctx)
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}
