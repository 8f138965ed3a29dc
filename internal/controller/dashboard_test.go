package controller

import (
	"context"
	"net/http"
	"testing"

	"clubly/internal/events"
	"clubly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	client := env.loggedIn(t, 1, "giulia", "secret")
	assert.ErrorIs(t, client.SetView(ctx, models.ViewPromoter), ErrForbiddenView)
	assert.Error(t, client.SetView(ctx, "nope"))
	require.NoError(t, client.SetView(ctx, models.ViewMain))
	assert.Equal(t, 0, env.fake.Count("GET /api/dashboard/main"))

	env.fake.AddChat(env.event.ID, env.client.ID, env.marco.ID)
	promoter := env.loggedIn(t, 2, "marco", "pw")
	require.NoError(t, promoter.SetView(ctx, models.ViewPromoter))

	state := promoter.Dashboard()
	assert.Equal(t, models.ViewPromoter, state.View)
	require.NotNil(t, state.Data)
	assert.Len(t, state.Data.Chats, 1)
	assert.Equal(t, 1, state.Data.Stats["active_chats"])
}

func TestDashboardErrorKeepsPreviousData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	promoter := env.loggedIn(t, 2, "marco", "pw")
	require.NoError(t, promoter.SetView(ctx, models.ViewPromoter))
	before := promoter.Dashboard().Data
	require.NotNil(t, before)

	env.fake.FailNext("GET /api/dashboard/promoter", http.StatusInternalServerError, "db down")
	assert.Error(t, promoter.Refresh(ctx))

	state := promoter.Dashboard()
	assert.Same(t, before, state.Data)
	assert.False(t, state.Loading)
	assert.Error(t, state.Err)
}

func TestAdminMutationRefetches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fake.AddUser(models.User{Nome: "Founder", Username: "founder", Email: "founder@clubly.it", Ruolo: models.RoleClublyFounder}, "pw")

	var mutations []events.MutationPayload
	env.bus.Subscribe(events.EventDashboardMutation, func(e *events.Event) error {
		var p events.MutationPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		mutations = append(mutations, p)
		return nil
	})

	founder := env.loggedIn(t, 3, "founder", "pw")
	require.NoError(t, founder.SetView(ctx, models.ViewClublyFounder))
	require.NoError(t, founder.OpenOverlay(CreateEventOverlay()))

	id, err := founder.CreateEvent(ctx, models.EventInput{Name: "Venerdì", Date: "2024-06-07", StartTime: "22:30", Location: "Nautilus", Organization: "Nautilus"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	assert.Equal(t, 2, env.fake.Count("GET /api/dashboard/clubly-founder"))
	_, ok := env.deps.Catalog.Event(id)
	assert.True(t, ok)
	assert.Len(t, founder.Dashboard().Data.Events, 2)
	assert.Equal(t, OverlayNone, founder.Overlay().Kind)

	require.NoError(t, founder.DeleteEvent(ctx, id))
	_, ok = env.deps.Catalog.Event(id)
	assert.False(t, ok)

	require.Len(t, mutations, 2)
	assert.Equal(t, ActionCreateEvent, mutations[0].Action)
	assert.Equal(t, ActionDeleteEvent, mutations[1].Action)

	_, err = founder.CreateEvent(ctx, models.EventInput{Name: " "})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestAdminActionForbiddenForClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.loggedIn(t, 1, "giulia", "secret")

	_, err := client.CreateEvent(ctx, models.EventInput{Name: "X", Date: "2024-01-01", StartTime: "22:00"})
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.NotEmpty(t, failure.Message)
}

func TestCapoIssuesPromoterForOwnOrganization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fake.AddUser(models.User{Nome: "Capo", Username: "capo", Email: "capo@clubly.it", Ruolo: models.RoleCapoPromoter, Organization: "Nautilus"}, "pw")

	capo := env.loggedIn(t, 4, "capo", "pw")
	res, err := capo.IssueCredentials(ctx, models.TemporaryCredentialsRequest{
		Nome:         "Nuovo",
		Email:        "nuovo@clubly.it",
		Password:     "temp123",
		Ruolo:        models.RoleClublyFounder,
		Organization: "Altro",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nautilus", res.Organization)

	body := env.fake.Bodies("POST /api/users/temporary-credentials")
	require.Len(t, body, 1)
	assert.Equal(t, "promoter", body[0]["ruolo"])

	team, err := capo.TeamPromoters(ctx)
	require.NoError(t, err)
	assert.Len(t, team, 2)
}
