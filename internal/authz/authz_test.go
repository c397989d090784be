package authz

import (
	"testing"
	"time"

	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/store"
	"github.com/orbitlabs/commune/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	eval  *Evaluator
	st    *store.Store
	alice *models.User // creator and admin
	bob   *models.User // plain member
	carol *models.User // outsider

	private *models.Collective
	public  *models.Collective
	request *models.WorkflowRequest
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewTestDB(t)
	st := store.New(db)
	f := &fixture{
		eval:  New(st),
		st:    st,
		alice: testutil.CreateUser(t, db, "alice"),
		bob:   testutil.CreateUser(t, db, "bob"),
		carol: testutil.CreateUser(t, db, "carol"),
	}

	f.private = &models.Collective{
		Kind: models.CollectiveKindGroup, Name: "private", CreatorID: f.alice.ID, IsActive: true,
	}
	require.NoError(t, st.CreateCollective(f.private))
	f.public = &models.Collective{
		Kind: models.CollectiveKindCommunity, Name: "public", CreatorID: f.alice.ID, IsPublic: true, IsActive: true,
	}
	require.NoError(t, st.CreateCollective(f.public))

	for _, m := range []*models.Membership{
		{CollectiveID: f.private.ID, UserID: f.alice.ID, Role: models.RoleAdmin, JoinedAt: time.Now()},
		{CollectiveID: f.private.ID, UserID: f.bob.ID, Role: models.RoleMember, JoinedAt: time.Now()},
	} {
		require.NoError(t, st.CreateMembership(m))
	}

	f.request = &models.WorkflowRequest{
		Domain:      models.WorkflowDomainLocation,
		SubjectID:   f.alice.ID,
		RequesterID: f.carol.ID,
		OwnerID:     f.alice.ID,
		Status:      models.WorkflowStatusPending,
	}
	require.NoError(t, st.CreateWorkflowRequest(f.request))
	return f
}

func (f *fixture) can(t *testing.T, actorID string, action Action, targetID string) bool {
	t.Helper()
	ok, err := f.eval.CanPerform(actorID, action, targetID)
	require.NoError(t, err)
	return ok
}

func TestModifyCollective(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.can(t, f.alice.ID, ActionModifyCollective, f.private.ID))
	assert.False(t, f.can(t, f.bob.ID, ActionModifyCollective, f.private.ID))
	assert.False(t, f.can(t, f.carol.ID, ActionModifyCollective, f.private.ID))

	// creator of the public collective never got a membership row here,
	// so admin checks deny them too
	assert.False(t, f.can(t, f.alice.ID, ActionModifyCollective, f.public.ID))
}

func TestContribute(t *testing.T) {
	f := newFixture(t)

	// private: creator and members only
	assert.True(t, f.can(t, f.alice.ID, ActionContributeToCollective, f.private.ID))
	assert.True(t, f.can(t, f.bob.ID, ActionContributeToCollective, f.private.ID))
	assert.False(t, f.can(t, f.carol.ID, ActionContributeToCollective, f.private.ID))

	// public: everyone
	assert.True(t, f.can(t, f.carol.ID, ActionContributeToCollective, f.public.ID))
}

func TestDecideWorkflowRequest(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.can(t, f.alice.ID, ActionDecideWorkflowRequest, f.request.ID))
	assert.False(t, f.can(t, f.carol.ID, ActionDecideWorkflowRequest, f.request.ID))
	assert.False(t, f.can(t, f.bob.ID, ActionDecideWorkflowRequest, f.request.ID))
}

func TestLeaveCollective(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.can(t, f.bob.ID, ActionLeaveCollective, f.private.ID))
	assert.False(t, f.can(t, f.alice.ID, ActionLeaveCollective, f.private.ID))
	assert.False(t, f.can(t, f.carol.ID, ActionLeaveCollective, f.private.ID))
}

func TestMissingTargetIsPlainDeny(t *testing.T) {
	f := newFixture(t)

	for _, action := range []Action{
		ActionModifyCollective,
		ActionContributeToCollective,
		ActionDecideWorkflowRequest,
		ActionLeaveCollective,
	} {
		ok, err := f.eval.CanPerform(f.alice.ID, action, "missing")
		assert.NoError(t, err, string(action))
		assert.False(t, ok, string(action))
	}
}

func TestUnknownAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.eval.CanPerform(f.alice.ID, Action("fly"), f.private.ID)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}
