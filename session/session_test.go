package session_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"kiosk/globals"
	"kiosk/session"
	"kiosk/session/sessiontest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestDecodeActiveToken(t *testing.T) {
	tok := sessiontest.Token(42, globals.RoleSuper, now.Add(time.Minute))
	res := session.Decode(tok, now)

	require.Equal(t, session.Active, res.Status)
	assert.Equal(t, 42, res.Session.UserID)
	assert.Equal(t, globals.RoleSuper, res.Session.Role)
	assert.True(t, res.Session.Elevated())
	assert.True(t, res.Valid())
}

func TestDecodeDefaultsRoleToUser(t *testing.T) {
	res := session.Decode(sessiontest.Token(7, "", now.Add(time.Minute)), now)
	require.True(t, res.Valid())
	assert.Equal(t, globals.RoleUser, res.Session.Role)
	assert.False(t, res.Session.Elevated())
}

func TestDecodeExpiry(t *testing.T) {
	atExpiry := session.Decode(sessiontest.Token(7, "", now), now)
	assert.Equal(t, session.Expired, atExpiry.Status, "expiry must be strictly in the future")
	assert.True(t, atExpiry.HasIdentity())
	assert.Equal(t, 7, atExpiry.Session.UserID)

	noExp := session.Decode(sessiontest.Token(7, "", time.Time{}), now)
	assert.Equal(t, session.Expired, noExp.Status)
}

func TestDecodeMalformedIsInvalidNotPanic(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"` + globals.UserIDClaim + `":"abc"}`))
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	cases := map[string]string{
		"one segment":     "abc",
		"two segments":    "abc.def",
		"four segments":   "a.b.c.d",
		"garbage":         "!!.??.**",
		"non-numeric sub": header + "." + payload + ".sig",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			res := session.Decode(tok, now)
			assert.Equal(t, session.Invalid, res.Status)
			assert.False(t, res.HasIdentity())
			assert.Zero(t, res.Session.UserID)
			assert.Empty(t, res.Session.Role)
		})
	}
	assert.Equal(t, session.Absent, session.Decode("  ", now).Status)
}

func TestDecodeRoleArray(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(
		`{"` + globals.UserIDClaim + `":5,"` + globals.RoleClaim + `":["SuperUser","User"],"exp":4102444800}`))
	res := session.Decode(header+"."+payload+".sig", now)
	require.True(t, res.Valid())
	assert.Equal(t, 5, res.Session.UserID)
	assert.Equal(t, globals.RoleSuper, res.Session.Role)
}

func TestHeadersAttachBearerWhenValid(t *testing.T) {
	fx := sessiontest.LoggedIn(3, "")
	h := fx.Handle.Headers(context.Background())
	assert.Contains(t, h.Get("Authorization"), "Bearer ")
	assert.Zero(t, fx.Nav.Count())
}

func TestHeadersLogOutWhenExpired(t *testing.T) {
	fx := sessiontest.New(sessiontest.Token(3, "", time.Now().Add(-time.Minute)))
	h := fx.Handle.Headers(context.Background())

	assert.Empty(t, h)
	assert.Equal(t, 1, fx.Nav.Count())
	_, err := fx.Store.Load(context.Background(), "t1")
	assert.ErrorIs(t, err, session.ErrNoToken)
}

func TestHeadersDecidedFreshEachCall(t *testing.T) {
	clock := now
	store := session.NewMemoryStore()
	nav := &sessiontest.Navigator{}
	h := session.NewHandle("t1", store, nav, session.WithClock(func() time.Time { return clock }))
	require.NoError(t, store.Save(context.Background(), "t1", session.Stored{Token: sessiontest.Token(1, "", now.Add(time.Minute))}, 0))

	assert.NotEmpty(t, h.Headers(context.Background()))
	clock = now.Add(2 * time.Minute)
	assert.Empty(t, h.Headers(context.Background()))
	assert.Equal(t, 1, nav.Count())
}

func TestBeginStoresTokenAndUserID(t *testing.T) {
	fx := sessiontest.New("")
	tok := sessiontest.Token(11, globals.RoleUser, time.Now().Add(time.Hour))
	res, err := fx.Handle.Begin(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, 11, res.Session.UserID)

	stored, err := fx.Store.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, tok, stored.Token)
	assert.Equal(t, "11", stored.UserID)

	fx.Handle.ForgetUserID(context.Background())
	stored, _ = fx.Store.Load(context.Background(), "t1")
	assert.Empty(t, stored.UserID)
	assert.Equal(t, tok, stored.Token)

	_, err = fx.Handle.Begin(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestLogoutAfterWaitsForTimer(t *testing.T) {
	fx := sessiontest.LoggedIn(1, "")
	fx.Handle.LogoutAfter(globals.LogoutDelay)

	assert.True(t, fx.Handle.IsValid(context.Background()), "still logged in before the timer fires")
	require.Equal(t, []time.Duration{globals.LogoutDelay}, fx.Timer.Delays)

	fx.Timer.Fire()
	assert.False(t, fx.Handle.IsValid(context.Background()))
	assert.Equal(t, 1, fx.Nav.Count())
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "a", session.Stored{Token: "x"}, time.Nanosecond))
	time.Sleep(time.Millisecond)
	_, err := store.Load(ctx, "a")
	assert.ErrorIs(t, err, session.ErrNoToken)
}

func TestOptionalHeadersNeverLogOut(t *testing.T) {
	fx := sessiontest.New(sessiontest.Token(4, "", time.Now().Add(-time.Minute)))
	assert.Empty(t, fx.Handle.Optional().Headers(context.Background()))
	assert.Zero(t, fx.Nav.Count())

	live := sessiontest.LoggedIn(4, "")
	assert.Contains(t, live.Handle.Optional().Headers(context.Background()).Get("Authorization"), "Bearer ")
}
