// Package message implements direct messages between users and their grouping into conversations.
package message

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

var nowFunc = time.Now // mockable

// ProfileGetter is the part of the profile store the Service needs.
type ProfileGetter interface {
	GetProfile(ctx context.Context, id string) (user.Profile, error)
}

type Service struct {
	repo      Repository
	profiles  ProfileGetter
	validator *core.Validator
	logger    core.Logger
}

func NewService(repo Repository, profiles ProfileGetter, validator *core.Validator, logger core.Logger) *Service {
	return &Service{
		repo:      repo,
		profiles:  profiles,
		validator: validator,
		logger:    logger,
	}
}

// Send stores a message from the caller. Unapproved students cannot send messages.
func (svc *Service) Send(ctx context.Context, actor access.AuthContext, fromID string, nm NewMessage) (_ Message, err error) {
	svc.logger.Debug(fmt.Sprintf("sending message to %s", nm.ToID), actor)
	defer func() { core.LogFailure(svc.logger, "sending message", err, actor) }()

	if err := access.RequireApproved(actor, user.AllRoles...); err != nil {
		return Message{}, err
	}
	if actor.UID != fromID {
		return Message{}, ErrNotSender
	}
	if err := nm.Validate(svc.validator); err != nil {
		return Message{}, err
	}
	if nm.ToID == fromID {
		return Message{}, ErrSelfMessage
	}

	to, err := svc.profiles.GetProfile(ctx, nm.ToID)
	if err != nil {
		if core.IsNotFound(err) {
			return Message{}, ErrRecipientNotFound
		}
		return Message{}, errors.Wrap(err, "getting recipient")
	}

	msg, err := svc.repo.CreateMessage(ctx, Message{
		ID:        uuid.New().String(),
		FromID:    fromID,
		ToID:      to.ID,
		Content:   nm.Content,
		Timestamp: nowFunc().UTC(),
	})
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}
	svc.logger.Info(fmt.Sprintf("message %s sent to %s", msg.ID, to.ID), actor)

	msg.ToName = to.Name
	msg.FromName = svc.resolver(ctx).name(fromID)
	return msg, nil
}

// ListForUser returns the messages sent or received by uid, oldest first, with participant names resolved.
// Unapproved students can still read their messages.
func (svc *Service) ListForUser(ctx context.Context, actor access.AuthContext, uid string) ([]Message, error) {
	if err := access.RequireSelfOr(actor, uid, user.RoleAdmin); err != nil {
		return nil, err
	}

	sent, err := svc.repo.QueryMessages(ctx, QueryFilter{FromID: uid})
	if err != nil {
		return nil, errors.Wrap(err, "querying sent messages")
	}
	received, err := svc.repo.QueryMessages(ctx, QueryFilter{ToID: uid})
	if err != nil {
		return nil, errors.Wrap(err, "querying received messages")
	}

	msgs := merge(sent, received)
	svc.resolveNames(ctx, msgs)
	return msgs, nil
}

// ListConversations groups the messages of uid by counterpart, most recently active first.
func (svc *Service) ListConversations(ctx context.Context, actor access.AuthContext, uid string) ([]Conversation, error) {
	msgs, err := svc.ListForUser(ctx, actor, uid)
	if err != nil {
		return nil, err
	}
	return Conversations(msgs, uid), nil
}

// ListConversation returns the thread between uid and other, oldest first.
func (svc *Service) ListConversation(ctx context.Context, actor access.AuthContext, uid, other string) (Conversation, error) {
	msgs, err := svc.ListForUser(ctx, actor, uid)
	if err != nil {
		return Conversation{}, err
	}
	conv := Conversation{
		CounterpartID:   other,
		CounterpartName: svc.resolver(ctx).name(other),
		Messages:        GroupByConversation(msgs, uid)[other],
	}
	if conv.Messages == nil {
		conv.Messages = make([]Message, 0)
	}
	return conv, nil
}

func (svc *Service) resolveNames(ctx context.Context, msgs []Message) {
	r := svc.resolver(ctx)
	for i := range msgs {
		msgs[i].FromName = r.name(msgs[i].FromID)
		msgs[i].ToName = r.name(msgs[i].ToID)
	}
}

func (svc *Service) resolver(ctx context.Context) *nameResolver {
	return &nameResolver{ctx: ctx, svc: svc, names: make(map[string]string)}
}

// nameResolver looks participant names up once per call, "Unknown" when the profile cannot be read.
type nameResolver struct {
	ctx   context.Context
	svc   *Service
	names map[string]string
}

func (r *nameResolver) name(id string) string {
	if name, ok := r.names[id]; ok {
		return name
	}
	name := UnknownName
	p, err := r.svc.profiles.GetProfile(r.ctx, id)
	switch {
	case err == nil:
		name = p.Name
	case !core.IsNotFound(err):
		r.svc.logger.Warn(fmt.Sprintf("resolving name of %s: %v", id, err), err)
	}
	r.names[id] = name
	return name
}

// merge unions two ordered lists, dropping duplicates (messages to self appear in both).
func merge(a, b []Message) []Message {
	seen := make(map[string]struct{}, len(a)+len(b))
	msgs := make([]Message, 0, len(a)+len(b))
	for _, list := range [][]Message{a, b} {
		for _, m := range list {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Before(msgs[j]) })
	return msgs
}

// GroupByConversation partitions the messages involving self by counterpart id, preserving their order.
// Messages not involving self are dropped.
func GroupByConversation(msgs []Message, self string) map[string][]Message {
	groups := make(map[string][]Message)
	for _, m := range msgs {
		if !m.Involves(self) {
			continue
		}
		other := m.Counterpart(self)
		groups[other] = append(groups[other], m)
	}
	return groups
}

// Conversations is GroupByConversation as a list, the conversation with the latest message first.
func Conversations(msgs []Message, self string) []Conversation {
	groups := GroupByConversation(msgs, self)
	convs := make([]Conversation, 0, len(groups))
	for other, thread := range groups {
		last := thread[len(thread)-1]
		name := last.FromName
		if last.FromID == self {
			name = last.ToName
		}
		convs = append(convs, Conversation{CounterpartID: other, CounterpartName: name, Messages: thread})
	}
	sort.Slice(convs, func(i, j int) bool {
		li := convs[i].Messages[len(convs[i].Messages)-1]
		lj := convs[j].Messages[len(convs[j].Messages)-1]
		if li.Before(lj) == lj.Before(li) {
			return convs[i].CounterpartID < convs[j].CounterpartID
		}
		return lj.Before(li)
	})
	return convs
}
