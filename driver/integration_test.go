//go:build integration

package driver_test

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/manojoshi/redisearch/aggregate"
	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/index"
	q "github.com/manojoshi/redisearch/query"
	"github.com/manojoshi/redisearch/repository"
	"github.com/manojoshi/redisearch/search"
)

const stackImage = "docker.io/redis/redis-stack-server:7.4.0-v1"

var (
	sharedContainer testcontainers.Container
	sharedAddr      string
	containerOnce   sync.Once
)

func TestMain(m *testing.M) {
	code := m.Run()
	if sharedContainer != nil {
		_ = sharedContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

// openConn starts the shared redis-stack container on first use.
func openConn(t *testing.T) *driver.Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	containerOnce.Do(func() {
		ctx := context.Background()
		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        stackImage,
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor: wait.ForLog("Ready to accept connections").
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			log.Fatalf("Failed to start redis-stack container: %v", err)
		}
		host, err := c.Host(ctx)
		if err != nil {
			log.Fatalf("Failed to get container host: %v", err)
		}
		port, err := c.MappedPort(ctx, "6379/tcp")
		if err != nil {
			log.Fatalf("Failed to get mapped port: %v", err)
		}
		sharedContainer = c
		sharedAddr = host + ":" + port.Port()
	})

	cfg := driver.DefaultConfig()
	cfg.Addrs = []string{sharedAddr}
	conn, err := driver.NewDefaultRegistry().Open("", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type movie struct {
	ID    string  `redisearch:"@id,TAG"`
	Title string  `redisearch:"@title"`
	Genre string  `redisearch:"@genre,TAG"`
	Year  int64   `redisearch:"@year,NUMERIC,SORTABLE"`
	Score float64 `redisearch:"@score,NUMERIC"`
}

func TestIntegration_EndToEnd(t *testing.T) {
	conn := openConn(t)
	ctx := context.Background()

	v, err := driver.ModuleVersion(ctx, conn)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v.Major(), uint64(2))

	repo := repository.New("it_movies", conn)
	_, _ = repo.Purge(ctx, "it:movie:")
	require.NoError(t, repo.DropIndex(ctx, false))
	require.NoError(t, repo.EnsureIndex(ctx, movie{}, index.WithPrefixes("it:movie:")))
	require.NoError(t, repo.EnsureIndex(ctx, movie{}, index.WithPrefixes("it:movie:")), "second create is a no-op")
	t.Cleanup(func() {
		_ = repo.DropIndex(context.Background(), true)
	})

	records := []any{
		movie{ID: "1", Title: "The Matrix", Genre: "scifi", Year: 1999, Score: 8.7},
		movie{ID: "2", Title: "Heat", Genre: "crime", Year: 1995, Score: 8.3},
		movie{ID: "3", Title: "Arrival", Genre: "scifi", Year: 2016, Score: 7.9},
	}
	require.NoError(t, repo.LoadBulk(ctx, "it:movie:", records, func(v any) string { return v.(movie).ID }))

	info, err := repo.Info(ctx)
	require.NoError(t, err)
	_, ok := info.Field("year")
	assert.True(t, ok)

	// indexing is asynchronous
	require.Eventually(t, func() bool {
		res, err := repo.Search(ctx, nil, repository.NoContent())
		return err == nil && res.Total == 3
	}, 10*time.Second, 100*time.Millisecond)

	found, err := repository.Find[movie](ctx, repo, q.Eq("genre", "scifi"), repository.SortAsc("year"))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "The Matrix", found[0].Title)
	assert.Equal(t, "Arrival", found[1].Title)

	res, err := search.NewBuilder("it_movies").
		Where(q.Between("year", 1990, 2000)).
		WithScores().
		Return("title").
		SortBy("year", search.Desc).
		Run(ctx, conn)
	require.NoError(t, err)
	require.Len(t, res.Documents, 2)
	assert.Equal(t, "The Matrix", res.Documents[0].Fields["title"])

	agg, err := aggregate.NewBuilder("it_movies").
		GroupBy([]string{"genre"}, aggregate.Count().As("n"), aggregate.Average("score").As("avg")).
		SortBy([]aggregate.SortKey{{Property: "n", Dir: aggregate.Desc}}, 0).
		Run(ctx, conn)
	require.NoError(t, err)
	require.Len(t, agg.Rows, 2)
	assert.Equal(t, "scifi", agg.Rows[0]["genre"])
	assert.Equal(t, "2", agg.Rows[0]["n"])

	cur, err := aggregate.NewBuilder("it_movies").
		Load("title").
		WithCursor(1, 0).
		Run(ctx, conn)
	require.NoError(t, err)
	assert.Len(t, cur.Rows, 1)
	seen := len(cur.Rows)
	for !cur.Done() {
		cur, err = aggregate.ReadCursor(ctx, conn, "it_movies", cur.Cursor, 1)
		require.NoError(t, err)
		seen += len(cur.Rows)
	}
	assert.Equal(t, 3, seen)

	_, err = search.NewBuilder("it_missing").Run(ctx, conn)
	assert.ErrorIs(t, err, driver.ErrIndexNotFound)

	n, err := repo.Purge(ctx, "it:movie:")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
