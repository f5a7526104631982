package httptransport_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ql "github.com/llehouerou/go-ql"
	"github.com/llehouerou/go-ql/config"
	"github.com/llehouerou/go-ql/httptransport"
)

const pointSchema = `
	schema {
		query: Query
		mutation: Mutation
	}
	type Query {
		point: Point!
		points: [Point!]!
	}
	type Mutation {
		addPoint(x: Int!, y: Int!): Point!
	}
	type Point {
		x: Int!
		y: Int!
	}
`

type Point struct {
	X int `ql:"x"`
	Y int `ql:"y"`
}

type pointResolver struct{ x, y int32 }

func (p *pointResolver) X() int32 { return p.x }
func (p *pointResolver) Y() int32 { return p.y }

type rootResolver struct {
	added []*pointResolver
}

func (r *rootResolver) Point() *pointResolver {
	return &pointResolver{x: 1, y: 2}
}

func (r *rootResolver) Points() []*pointResolver {
	return []*pointResolver{{x: 1, y: 2}, {x: 3, y: 4}}
}

func (r *rootResolver) AddPoint(args struct{ X, Y int32 }) *pointResolver {
	p := &pointResolver{x: args.X, y: args.Y}
	r.added = append(r.added, p)
	return p
}

func newPointServer(t *testing.T, root *rootResolver) *httptest.Server {
	t.Helper()
	schema := graphql.MustParseSchema(pointSchema, root)
	srv := httptest.NewServer(&relay.Handler{Schema: schema})
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_EndToEnd(t *testing.T) {
	root := &rootResolver{}
	srv := newPointServer(t, root)

	reg := ql.NewRegistry()
	ql.MustRegister[Point](reg, ql.WithQueryName("point"), ql.WithMutateName("addPoint"))
	client := ql.NewClient(reg, httptransport.New(srv.URL, nil))
	ctx := context.Background()

	t.Run("query", func(t *testing.T) {
		fields, err := reg.QueryableFields(Point{})
		require.NoError(t, err)

		got, err := client.Query(ctx, []ql.Selection{
			ql.Select(ql.Model[Point](), fields.Leaves()...),
			ql.Select(ql.Name("points"), ql.Field("x")),
		})
		require.NoError(t, err)
		assert.Equal(t, &Point{X: 1, Y: 2}, got["point"])
		assert.Equal(t, []any{&Point{X: 1}, &Point{X: 3}}, got["points"])
	})

	t.Run("mutation", func(t *testing.T) {
		m, err := reg.MutationFor(&Point{X: 5, Y: 6}, ql.ReturnNodes{ql.Field("x"), ql.Field("y")})
		require.NoError(t, err)

		got, err := client.Mutate(ctx, []ql.Mutation{m})
		require.NoError(t, err)
		assert.Equal(t, &Point{X: 5, Y: 6}, got["addPoint"])
		require.Len(t, root.added, 1)
	})

	t.Run("protocol errors", func(t *testing.T) {
		_, err := client.Exec(ctx, "query{missing{x}}")
		var errs ql.Errors
		require.True(t, errors.As(err, &errs), "error = %v", err)
		assert.NotEmpty(t, errs[0].Message)
		assert.NotEmpty(t, errs[0].Locations)
	})
}

func TestNewClient(t *testing.T) {
	srv := newPointServer(t, &rootResolver{})

	reg := ql.NewRegistry()
	ql.MustRegister[Point](reg, ql.WithQueryName("point"))

	cfg := config.Default()
	cfg.Endpoint = srv.URL
	cfg.Debug = true
	cfg.Log.Level = "debug"
	cfg.Log.Outputs = []string{filepath.Join(t.TempDir(), "ql.log")}

	client, err := httptransport.NewClient(reg, cfg)
	require.NoError(t, err)

	got, err := client.Exec(context.Background(), "query{point{x,y,__typename}}")
	require.NoError(t, err)
	assert.Equal(t, &Point{X: 1, Y: 2}, got["point"])

	log, err := os.ReadFile(cfg.Log.Outputs[0])
	require.NoError(t, err)
	assert.Contains(t, string(log), "sending document")
	assert.Contains(t, string(log), "response received")

	cfg.Log.Level = "loud"
	_, err = httptransport.NewClient(reg, cfg)
	assert.Error(t, err)
}
