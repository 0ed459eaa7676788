package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-chat-backend/internal/models"
	"social-chat-backend/internal/repository"
)

// fakeConn records every frame written to it so tests can assert on
// delivered events.
type fakeConn struct {
	mu         sync.Mutex
	frames     [][]byte
	closed     bool
	failWrites bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("write on dead connection")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type recordedEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// events decodes every recorded frame
func (c *fakeConn) events(t *testing.T) []recordedEvent {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]recordedEvent, 0, len(c.frames))
	for _, frame := range c.frames {
		var ev recordedEvent
		require.NoError(t, json.Unmarshal(frame, &ev))
		out = append(out, ev)
	}
	return out
}

// eventsNamed decodes only the frames carrying the given event name
func (c *fakeConn) eventsNamed(t *testing.T, name string) []recordedEvent {
	t.Helper()
	var out []recordedEvent
	for _, ev := range c.events(t) {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, userID, fullName, profilePic string) (*models.User, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u.FullName = fullName
	u.ProfilePic = profilePic
	return u, nil
}

func (s *fakeUserStore) SetAllowStrangerMessage(ctx context.Context, userID string, allow bool) error {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u.AllowStrangerMessage = allow
	return nil
}

func (s *fakeUserStore) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u.PushToken = pushToken
	return nil
}

func (s *fakeUserStore) Search(_ context.Context, userID, term string, limit int) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	term = strings.ToLower(term)
	var out []*models.User
	for _, u := range s.users {
		if u.ID == userID {
			continue
		}
		if strings.Contains(strings.ToLower(u.FullName), term) || strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, u)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeUserStore) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) ListOthers(_ context.Context, userID string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.users {
		if u.ID != userID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// fakeFriendshipStore keeps at most one record per unordered user pair
// and mirrors the conditional-update semantics of the SQL repository:
// every transition checks the pre-state under the lock and reports
// not-found when it no longer holds.
type fakeFriendshipStore struct {
	mu      sync.Mutex
	records map[string]*models.Friendship
}

func newFakeFriendshipStore() *fakeFriendshipStore {
	return &fakeFriendshipStore{records: make(map[string]*models.Friendship)}
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

func (s *fakeFriendshipStore) Create(_ context.Context, f *models.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(f.RequesterID, f.RecipientID)
	if _, ok := s.records[key]; ok {
		return errors.New("duplicate friendship record")
	}
	cp := *f
	s.records[key] = &cp
	return nil
}

func (s *fakeFriendshipStore) GetByPair(_ context.Context, userA, userB string) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.records[pairKey(userA, userB)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeFriendshipStore) Revive(_ context.Context, id, requesterID, recipientID string) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.records[pairKey(requesterID, recipientID)]
	if !ok || f.ID != id || f.Status != models.FriendshipDeclined {
		return nil, repository.ErrNotFound
	}
	f.RequesterID = requesterID
	f.RecipientID = recipientID
	f.Status = models.FriendshipPending
	f.UpdatedAt = time.Now()
	cp := *f
	return &cp, nil
}

func (s *fakeFriendshipStore) UpdatePendingStatus(_ context.Context, requesterID, recipientID string, status models.FriendshipStatus) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.records[pairKey(requesterID, recipientID)]
	if !ok || f.RequesterID != requesterID || f.RecipientID != recipientID || f.Status != models.FriendshipPending {
		return nil, repository.ErrNotFound
	}
	f.Status = status
	f.UpdatedAt = time.Now()
	cp := *f
	return &cp, nil
}

func (s *fakeFriendshipStore) DeletePending(_ context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(requesterID, recipientID)
	f, ok := s.records[key]
	if !ok || f.RequesterID != requesterID || f.RecipientID != recipientID || f.Status != models.FriendshipPending {
		return nil, repository.ErrNotFound
	}
	delete(s.records, key)
	return f, nil
}

func (s *fakeFriendshipStore) DeleteAccepted(_ context.Context, userA, userB string) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(userA, userB)
	f, ok := s.records[key]
	if !ok || f.Status != models.FriendshipAccepted {
		return nil, repository.ErrNotFound
	}
	delete(s.records, key)
	return f, nil
}

func (s *fakeFriendshipStore) AcceptedExists(_ context.Context, userA, userB string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.records[pairKey(userA, userB)]
	return ok && f.Status == models.FriendshipAccepted, nil
}

func (s *fakeFriendshipStore) ListFriendIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, f := range s.records {
		if f.Status != models.FriendshipAccepted {
			continue
		}
		if f.RequesterID == userID {
			out = append(out, f.RecipientID)
		} else if f.RecipientID == userID {
			out = append(out, f.RequesterID)
		}
	}
	return out, nil
}

func (s *fakeFriendshipStore) ListPending(_ context.Context, userID string, sent bool) ([]*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Friendship
	for _, f := range s.records {
		if f.Status != models.FriendshipPending {
			continue
		}
		if (sent && f.RequesterID == userID) || (!sent && f.RecipientID == userID) {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeFriendshipStore) CountFriends(ctx context.Context, userID string) (int, error) {
	ids, _ := s.ListFriendIDs(ctx, userID)
	return len(ids), nil
}

// recordCount returns how many records exist for the pair; the per-pair
// invariant says it is never more than one
func (s *fakeFriendshipStore) recordCount(userA, userB string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[pairKey(userA, userB)]; ok {
		return 1
	}
	return 0
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages []*models.Message
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (s *fakeMessageStore) Create(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *fakeMessageStore) Conversation(_ context.Context, userA, userB string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Message
	for _, m := range s.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMessageStore) LastBetween(ctx context.Context, userA, userB string) (*models.Message, error) {
	msgs, _ := s.Conversation(ctx, userA, userB)
	if len(msgs) == 0 {
		return nil, repository.ErrNotFound
	}
	return msgs[len(msgs)-1], nil
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []*models.Notification
	createErr     error
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{}
}

func (s *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

func (s *fakeNotificationStore) ListForUser(_ context.Context, userID string, limit int) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if s.notifications[i].RecipientID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) MarkRead(_ context.Context, id, userID string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id && n.RecipientID == userID {
			n.IsRead = true
			return n, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeNotificationStore) MarkAllRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.RecipientID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *fakeNotificationStore) UnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *fakeNotificationStore) Delete(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id && n.RecipientID == userID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeNotificationStore) forUser(userID string) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.RecipientID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakePostStore struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	likes map[string]*models.Like // keyed postID|userID
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{
		posts: make(map[string]*models.Post),
		likes: make(map[string]*models.Like),
	}
}

func likeKey(postID, userID string) string { return postID + "|" + userID }

func (s *fakePostStore) Create(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s *fakePostStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Deleted {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePostStore) Update(_ context.Context, p *models.Post) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.posts[p.ID]
	if !ok || existing.Deleted || existing.UserID != p.UserID {
		return nil, repository.ErrNotFound
	}
	existing.Content = p.Content
	existing.Media = p.Media
	existing.Background = p.Background
	existing.Feeling = p.Feeling
	existing.UpdatedAt = time.Now()
	cp := *existing
	return &cp, nil
}

func (s *fakePostStore) SoftDelete(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Deleted || p.UserID != userID {
		return repository.ErrNotFound
	}
	p.Deleted = true
	return nil
}

func (s *fakePostStore) SetPinned(_ context.Context, id, userID string, pinned bool) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Deleted || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	p.Pinned = pinned
	cp := *p
	return &cp, nil
}

func (s *fakePostStore) SetPrivacy(_ context.Context, id, userID string, privacy models.PostPrivacy) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Deleted || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	p.Privacy = privacy
	cp := *p
	return &cp, nil
}

func (s *fakePostStore) ListFeed(_ context.Context, viewerID string, friendIDs []string, limit, offset int) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	friends := make(map[string]bool, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = true
	}
	var out []*models.Post
	for _, p := range s.posts {
		if p.Deleted {
			continue
		}
		if p.UserID == viewerID || p.Privacy == models.PrivacyPublic || (p.Privacy == models.PrivacyFriends && friends[p.UserID]) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, limit, offset), nil
}

func (s *fakePostStore) ListByUser(_ context.Context, authorID string, includeFriends, includeAll bool, limit, offset int) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Post
	for _, p := range s.posts {
		if p.Deleted || p.UserID != authorID {
			continue
		}
		if includeAll || p.Privacy == models.PrivacyPublic || (p.Privacy == models.PrivacyFriends && includeFriends) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, limit, offset), nil
}

func (s *fakePostStore) GetLike(_ context.Context, postID, userID string) (*models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.likes[likeKey(postID, userID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return l, nil
}

func (s *fakePostStore) CreateLike(_ context.Context, l *models.Like) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[l.PostID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	cp := *l
	s.likes[likeKey(l.PostID, l.UserID)] = &cp
	p.LikeCount++
	return p.LikeCount, nil
}

func (s *fakePostStore) DeleteLike(_ context.Context, l *models.Like) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[l.PostID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	delete(s.likes, likeKey(l.PostID, l.UserID))
	if p.LikeCount > 0 {
		p.LikeCount--
	}
	return p.LikeCount, nil
}

func (s *fakePostStore) ListLikes(_ context.Context, postID string, limit, offset int) ([]*models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Like
	for _, l := range s.likes {
		if l.PostID == postID {
			out = append(out, l)
		}
	}
	return window(out, limit, offset), nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

type fakeCommentStore struct {
	mu       sync.Mutex
	posts    *fakePostStore
	comments []*models.Comment
}

func newFakeCommentStore(posts *fakePostStore) *fakeCommentStore {
	return &fakeCommentStore{posts: posts}
}

func (s *fakeCommentStore) Create(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.comments = append(s.comments, &cp)

	s.posts.mu.Lock()
	defer s.posts.mu.Unlock()
	if p, ok := s.posts.posts[c.PostID]; ok {
		p.CommentCount++
	}
	return nil
}

func (s *fakeCommentStore) GetByID(_ context.Context, id string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comments {
		if c.ID == id && !c.Deleted {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeCommentStore) ListRoots(_ context.Context, postID string, limit, offset int) ([]*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Comment
	for _, c := range s.comments {
		if c.PostID == postID && c.ParentID == nil && !c.Deleted {
			out = append(out, c)
		}
	}
	return window(out, limit, offset), nil
}

func (s *fakeCommentStore) ListReplies(_ context.Context, postID string) ([]*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Comment
	for _, c := range s.comments {
		if c.PostID == postID && c.ParentID != nil && !c.Deleted {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []string // "token: alert"
	err    error
}

func (p *fakePusher) Push(_ context.Context, deviceToken, alert string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.pushes = append(p.pushes, deviceToken+": "+alert)
	return nil
}

func testUser(id, name string) *models.User {
	return &models.User{
		ID:                   id,
		Email:                strings.ToLower(name) + "@example.com",
		FullName:             name,
		AllowStrangerMessage: true,
		CreatedAt:            time.Now(),
	}
}
