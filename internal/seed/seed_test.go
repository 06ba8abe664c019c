package seed

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-builder/internal/devserver"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

func newClient(t *testing.T) *sdk.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := devserver.NewStore()
	store.SeedSystemCatalog()
	_, err := store.Register(schema.Registration{Email: "test@example.com", Password: "testpass123", FullName: "Test"})
	require.NoError(t, err)
	srv := httptest.NewServer(devserver.NewRouter(store, nil))
	t.Cleanup(srv.Close)

	c := sdk.New(srv.URL)
	_, err = c.Auth().Login(context.Background(), "test@example.com", "testpass123")
	require.NoError(t, err)
	return c
}

func TestRunIsIdempotent(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	s := New(c, nil)

	first, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Fields, len(demoFields))
	assert.Equal(t, DemoObject, first.Object.Name)
	assert.Len(t, first.Attachments, len(demoFields))
	assert.Len(t, first.Records, len(sampleRecords))

	second, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Object.ID, second.Object.ID)
	for i := range first.Fields {
		assert.Equal(t, first.Fields[i].ID, second.Fields[i].ID)
		assert.Equal(t, first.Attachments[i].ID, second.Attachments[i].ID)
	}

	recs, err := c.Records().List(ctx, sdk.RecordFilter{ObjectID: first.Object.ID})
	require.NoError(t, err)
	assert.Len(t, recs, len(sampleRecords), "a second run adds no records")

	attached, err := c.ObjectFields().List(ctx, first.Object.ID)
	require.NoError(t, err)
	assert.Len(t, attached, len(demoFields))
}

func TestSampleRecordsAreKeyedByFieldID(t *testing.T) {
	c := newClient(t)
	res, err := New(c, nil).Run(context.Background())
	require.NoError(t, err)

	var firstName string
	for _, f := range res.Fields {
		if f.Name == "first_name" {
			firstName = f.ID
		}
	}
	require.NotEmpty(t, firstName)
	assert.Equal(t, "Ada", res.Records[0].Data[firstName])
	_, byName := res.Records[0].Data["first_name"]
	assert.False(t, byName)
}

func TestRunStopsOnAuthFailure(t *testing.T) {
	c := newClient(t)
	require.NoError(t, c.Auth().Logout())

	_, err := New(c, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, sdk.IsUnauthorized(err))
}
