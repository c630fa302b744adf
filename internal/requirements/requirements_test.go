package requirements

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

var (
	topicX = model.TopicRef{ID: "topic-x", Title: "Basics"}
	topicY = model.TopicRef{ID: "topic-y", Title: "Advanced"}
)

func TestMissingRequirements_NoRequirements(t *testing.T) {
	e := &model.Event{ID: "e1"}
	assert.Empty(t, MissingRequirements(e, model.Registrant{ID: "u1"}))
	assert.True(t, FulfillsRequirements(e, model.Registrant{ID: "u1"}))
}

func TestMissingRequirements_NoHistory(t *testing.T) {
	e := &model.Event{ID: "e1", Requirements: []model.TopicRef{topicX}}

	missing := MissingRequirements(e, model.Registrant{ID: "u1"})
	require.Len(t, missing, 1)
	assert.Equal(t, topicX, missing[0])
}

func TestMissingRequirements_AnyDateOfTopicCounts(t *testing.T) {
	e := &model.Event{ID: "e1", Requirements: []model.TopicRef{topicX, topicY}}
	registrant := model.Registrant{ID: "u1", History: []model.Registration{
		{EventID: "date-of-x-2024", TopicID: topicX.ID, State: model.StateActive},
	}}

	missing := MissingRequirements(e, registrant)
	assert.Equal(t, []model.TopicRef{topicY}, missing)
}

func TestMissingRequirements_SingleEventIsItsOwnTopic(t *testing.T) {
	e := &model.Event{ID: "e1", Requirements: []model.TopicRef{topicX}}
	registrant := model.Registrant{ID: "u1", History: []model.Registration{
		{EventID: topicX.ID, State: model.StateActive},
	}}

	assert.True(t, FulfillsRequirements(e, registrant))
}

func TestMissingRequirements_RemovedRegistrationDoesNotCount(t *testing.T) {
	e := &model.Event{ID: "e1", Requirements: []model.TopicRef{topicX}}
	registrant := model.Registrant{ID: "u1", History: []model.Registration{
		{EventID: "d1", TopicID: topicX.ID, State: model.StateRemoved},
	}}

	assert.Equal(t, []model.TopicRef{topicX}, MissingRequirements(e, registrant))
}

func TestMissingRequirements_WaitingListCounts(t *testing.T) {
	e := &model.Event{ID: "e1", Requirements: []model.TopicRef{topicX}}
	registrant := model.Registrant{ID: "u1", History: []model.Registration{
		{EventID: "d1", TopicID: topicX.ID, Status: model.StatusWaitingList, State: model.StateActive},
	}}

	assert.True(t, FulfillsRequirements(e, registrant))
}

func TestMissingRequirements_DuplicatesReportedOnce(t *testing.T) {
	e := &model.Event{ID: "e1", Requirements: []model.TopicRef{topicX, topicX}}

	assert.Len(t, MissingRequirements(e, model.Registrant{}), 1)
}

func TestMissingRequirements_CyclicDataTerminates(t *testing.T) {
	// x requires y, y requires x: the resolver only looks one hop.
	x := &model.Event{ID: topicX.ID, Requirements: []model.TopicRef{topicY}}
	y := &model.Event{ID: topicY.ID, Requirements: []model.TopicRef{topicX}}

	assert.Equal(t, []model.TopicRef{topicY}, MissingRequirements(x, model.Registrant{}))
	assert.Equal(t, []model.TopicRef{topicX}, MissingRequirements(y, model.Registrant{}))
}

func TestMissingRequirements_EmptyIffEveryTopicHeld(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		numTopics := rapid.IntRange(0, 6).Draw(rt, "numTopics")
		topics := make([]model.TopicRef, numTopics)
		for i := range topics {
			topics[i] = model.TopicRef{ID: fmt.Sprintf("topic-%d", i)}
		}
		e := &model.Event{ID: "target", Requirements: topics}

		var history []model.Registration
		held := 0
		for i, topic := range topics {
			switch rapid.IntRange(0, 2).Draw(rt, fmt.Sprintf("holding-%d", i)) {
			case 1:
				history = append(history, model.Registration{EventID: "d", TopicID: topic.ID, State: model.StateActive})
				held++
			case 2:
				history = append(history, model.Registration{EventID: "d", TopicID: topic.ID, State: model.StateRemoved})
			}
		}

		missing := MissingRequirements(e, model.Registrant{History: history})
		if (len(missing) == 0) != (held == numTopics) {
			rt.Fatalf("missing=%v held=%d topics=%d", missing, held, numTopics)
		}
	})
}
