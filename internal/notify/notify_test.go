package notify

import (
	"fmt"
	"testing"

	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/store"
	"github.com/orbitlabs/commune/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*Dispatcher, *store.Store) {
	st := store.New(testutil.NewTestDB(t))
	return New(st, zap.NewNop()), st
}

func TestEmitAndList(t *testing.T) {
	d, st := setup(t)
	recipient := testutil.CreateUser(t, st.DB(), "alice")
	source := testutil.CreateUser(t, st.DB(), "bob")

	event, err := d.EmitDirect(recipient.ID, source.ID, models.NotificationMemberJoined, &models.NotificationPayload{
		CollectiveID:   "c1",
		CollectiveName: "crew",
	})
	require.NoError(t, err)
	assert.False(t, event.IsRead)
	assert.NotEmpty(t, event.ID)

	events, err := d.List(recipient.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Payload)
	assert.Equal(t, "crew", events[0].Payload.CollectiveName)

	// the source user sees nothing
	events, err = d.List(source.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEmitInsideRolledBackTransaction(t *testing.T) {
	d, st := setup(t)
	recipient := testutil.CreateUser(t, st.DB(), "alice")
	source := testutil.CreateUser(t, st.DB(), "bob")

	boom := fmt.Errorf("boom")
	err := st.Transaction(func(tx *store.Store) error {
		if _, err := d.Emit(tx, recipient.ID, source.ID, models.NotificationMemberJoined, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// the rollback takes the notification with it
	count, err := d.UnreadCount(recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkRead(t *testing.T) {
	d, st := setup(t)
	recipient := testutil.CreateUser(t, st.DB(), "alice")
	source := testutil.CreateUser(t, st.DB(), "bob")

	event, err := d.EmitDirect(recipient.ID, source.ID, models.NotificationLocationRequest, nil)
	require.NoError(t, err)

	// only the recipient may mark it
	err = d.MarkRead(event.ID, source.ID)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))

	require.NoError(t, d.MarkRead(event.ID, recipient.ID))
	// marking again is a quiet no-op
	require.NoError(t, d.MarkRead(event.ID, recipient.ID))

	count, err := d.UnreadCount(recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = d.MarkRead("missing", recipient.ID)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestMarkAllRead(t *testing.T) {
	d, st := setup(t)
	recipient := testutil.CreateUser(t, st.DB(), "alice")
	source := testutil.CreateUser(t, st.DB(), "bob")

	for i := 0; i < 3; i++ {
		_, err := d.EmitDirect(recipient.ID, source.ID, models.NotificationInviteRequest, nil)
		require.NoError(t, err)
	}

	affected, err := d.MarkAllRead(recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)

	// nothing left unread, the second sweep reports zero
	affected, err = d.MarkAllRead(recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestListPagination(t *testing.T) {
	d, st := setup(t)
	recipient := testutil.CreateUser(t, st.DB(), "alice")
	source := testutil.CreateUser(t, st.DB(), "bob")

	for i := 0; i < 5; i++ {
		_, err := d.EmitDirect(recipient.ID, source.ID, models.NotificationInviteRequest, nil)
		require.NoError(t, err)
	}

	page, err := d.List(recipient.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = d.List(recipient.ID, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
