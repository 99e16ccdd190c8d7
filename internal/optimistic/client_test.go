package optimistic

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/imoto-rec-git/sns-like-app/internal/auth"
	"github.com/imoto-rec-git/sns-like-app/internal/social"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "client-secret"
	testPostID = "0b6e0f3c-5c1e-4b8a-9c55-2f1d9a6b7e10"
)

func serveSocial(t *testing.T, q pgxmock.PgxPoolIface) string {
	t.Helper()
	app := fiber.New()
	social.RegisterRoutes(app.Group("/social"), social.NewService(q, nil, nil), auth.JWTMiddleware(testSecret))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func sessionToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.NewService(testSecret).IssueToken(userID, time.Minute)
	require.NoError(t, err)
	return token
}

func TestClientLikeToggleConfirms(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id FROM likes`).
		WithArgs("user-1", testPostID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO likes`).
		WithArgs(pgxmock.AnyArg(), "user-1", testPostID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM likes`).
		WithArgs(testPostID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	base := serveSocial(t, mock)
	client := NewClient(base+"/", sessionToken(t, "user-1"))
	el := NewElement(State{Present: false, Count: 2}, client.LikeToggle(testPostID))

	res := await(t, el.Act(context.Background()))
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, State{Present: true, Count: 3}, el.Snapshot().Rendered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientFollowToggleDiverges(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	// Another tab already followed; this toggle removes the follow.
	mock.ExpectQuery(`SELECT id FROM follows`).
		WithArgs("user-1", "user-2").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("follow-1"))
	mock.ExpectExec(`DELETE FROM follows`).
		WithArgs("follow-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM follows`).
		WithArgs("user-2").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	base := serveSocial(t, mock)
	client := NewClient(base, sessionToken(t, "user-1"))
	el := NewElement(State{Present: false, Count: 1}, client.FollowToggle("user-2"))

	res := await(t, el.Act(context.Background()))
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeDiverged, res.Outcome)
	assert.Equal(t, State{Present: false, Count: 0}, el.Snapshot().Rendered)
}

func TestClientUnauthorizedReverts(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	base := serveSocial(t, mock)
	client := NewClient(base, "not-a-token")
	el := NewElement(State{Present: false, Count: 2}, client.LikeToggle(testPostID))

	res := await(t, el.Act(context.Background()))
	assert.Equal(t, OutcomeReverted, res.Outcome)
	var statusErr *StatusError
	require.True(t, errors.As(res.Err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, State{Present: false, Count: 2}, el.Snapshot().Rendered)
}

func TestClientCanceledContext(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "token")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LikeToggle(testPostID)(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
