package chathub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/metrics"
	"anonmatch/backend/internal/models"
	"anonmatch/backend/internal/storage"

	"go.uber.org/zap"
)

// Searcher повертає користувача в пошук. Реалізується MatcherService.
type Searcher interface {
	RequestMatch(ctx context.Context, userID int64) (*MatchResult, error)
}

// ManagerService володіє картою пар і чергою очікування.
//
// Усі зміни pairs, sessions і waiting відбуваються під mu. Сесія
// зберігається в БД до оновлення карти в тій самій критичній секції, тож
// relay ніколи не бачить напівстворену пару. Надсилання повідомлень
// завжди відбувається після звільнення mu.
type ManagerService struct {
	Storage storage.Storage
	Sender  Sender
	Notices Notices

	log *zap.SugaredLogger
	now func() time.Time

	mu       sync.Mutex
	pairs    map[int64]int64
	sessions map[int64]uint
	waiting  map[int64]struct{}

	searcher Searcher
}

// NewManagerService створює порожній хаб.
func NewManagerService(s storage.Storage, sender Sender, notices Notices, log *zap.SugaredLogger) *ManagerService {
	if log == nil {
		log = zap.S()
	}
	return &ManagerService{
		Storage:  s,
		Sender:   sender,
		Notices:  notices,
		log:      log,
		now:      time.Now,
		pairs:    make(map[int64]int64),
		sessions: make(map[int64]uint),
		waiting:  make(map[int64]struct{}),
	}
}

// SetSearcher підключає пошук, який запускається після невдалого relay.
func (m *ManagerService) SetSearcher(s Searcher) {
	m.searcher = s
}

// Restore відновлює карту пар з активних сесій після перезапуску.
// Сесія, учасники якої вже в парі з попереднього рядка, закривається.
func (m *ManagerService) Restore(ctx context.Context) (int, error) {
	m.log.Info("Starting active session recovery process...")

	sessions, err := m.Storage.ListActiveSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restored := 0
	for _, s := range sessions {
		_, busy1 := m.pairs[s.User1ID]
		_, busy2 := m.pairs[s.User2ID]
		if busy1 || busy2 || s.User1ID == s.User2ID {
			m.log.Warnf("Closing conflicting session %d between %d and %d", s.SessionID, s.User1ID, s.User2ID)
			if err := m.Storage.EndSession(ctx, s.SessionID); err != nil {
				m.log.Errorf("ERROR: failed to close conflicting session %d: %v", s.SessionID, err)
			}
			continue
		}
		m.install(s.User1ID, s.User2ID, s.SessionID)
		restored++
	}
	m.updateGauges()

	m.log.Infof("Recovery complete. Restored %d active sessions.", restored)
	return restored, nil
}

// StartSession з'єднує a і b. Спочатку пишемо сесію в БД, і якщо це не
// вдалося, у пам'яті нічого не змінюється.
func (m *ManagerService) StartSession(ctx context.Context, a, b int64) (*models.ChatSession, error) {
	if a == b {
		return nil, ErrSelfPairing
	}

	// 1. Перевірка, що обидва вільні
	m.mu.Lock()
	_, aPaired := m.pairs[a]
	_, bPaired := m.pairs[b]
	if aPaired || bPaired {
		m.mu.Unlock()
		return nil, ErrAlreadyPaired
	}

	// 2. Збереження сесії в PostgreSQL
	session, err := m.Storage.CreateSession(ctx, a, b)
	if err != nil {
		m.mu.Unlock()
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrAlreadyPaired
		}
		m.log.Errorf("ERROR: failed to persist session between %d and %d: %v", a, b, err)
		return nil, err
	}

	// 3. Оновлення карти пар (ще під mu)
	m.install(a, b, session.SessionID)
	delete(m.waiting, a)
	delete(m.waiting, b)
	m.updateGauges()
	m.mu.Unlock()

	metrics.MatchesTotal.Inc()
	m.log.Infof("Match found: %d and %d in session %d", a, b, session.SessionID)

	// 4. Сповіщення обом учасникам
	m.notify(ctx, a, m.Notices.MatchFound)
	m.notify(ctx, b, m.Notices.MatchFound)
	m.publish(ctx, models.SessionEvent{Type: models.EventPaired, SessionID: session.SessionID, UserIDs: []int64{a, b}})

	return session, nil
}

// Relay пересилає текст від sender його партнеру та зберігає його в історії.
//
// Якщо партнер недоступний, сесія закривається, відправника сповіщаємо і
// одразу повертаємо в пошук, після чого повертається ErrRecipientUnreachable.
// Інші помилки транспорту сесію не зачіпають.
func (m *ManagerService) Relay(ctx context.Context, senderID int64, text string) error {
	m.mu.Lock()
	partnerID, ok := m.pairs[senderID]
	m.mu.Unlock()
	if !ok {
		return ErrNotPaired
	}

	err := m.Sender.Send(ctx, partnerID, config.RelayMessagePrefix+text, nil)
	switch {
	case errors.Is(err, ErrRecipientUnreachable):
		metrics.RelayFailuresTotal.WithLabelValues(metrics.ReasonUnreachable).Inc()
		m.log.Infof("Partner %d of %d is unreachable, ending session", partnerID, senderID)

		if _, err := m.endPair(ctx, senderID, partnerID, metrics.ReasonUnreachable); err != nil {
			return err
		}
		m.notify(ctx, senderID, m.Notices.PartnerUnavailable)
		if m.searcher != nil {
			if _, err := m.searcher.RequestMatch(ctx, senderID); err != nil {
				m.log.Warnf("re-search for %d failed: %v", senderID, err)
			}
		}
		return ErrRecipientUnreachable

	case err != nil:
		metrics.RelayFailuresTotal.WithLabelValues(metrics.ReasonTransport).Inc()
		return fmt.Errorf("relay to partner: %w", err)
	}

	metrics.MessagesRelayedTotal.Inc()
	if _, err := m.Storage.AppendMessage(ctx, senderID, partnerID, text); err != nil {
		m.log.Errorf("ERROR: failed to log message from %d: %v", senderID, err)
	}
	return nil
}

// EndSession завершує поточну сесію userID і сповіщає партнера. Якщо
// userID не в парі, повертає ErrNotPaired і нічого не змінює.
func (m *ManagerService) EndSession(ctx context.Context, userID int64) error {
	partnerID, err := m.endPair(ctx, userID, 0, metrics.ReasonStopped)
	if err != nil {
		return err
	}
	m.notify(ctx, partnerID, m.Notices.PartnerLeft)
	return nil
}

// endPair закриває сесію userID. Якщо expectPartner не нуль, сесія
// закривається лише тоді, коли userID досі в парі саме з ним.
func (m *ManagerService) endPair(ctx context.Context, userID, expectPartner int64, reason string) (int64, error) {
	m.mu.Lock()
	partnerID, ok := m.pairs[userID]
	if !ok || (expectPartner != 0 && partnerID != expectPartner) {
		m.mu.Unlock()
		return 0, ErrNotPaired
	}
	sessionID := m.sessions[userID]

	if err := m.Storage.EndSession(ctx, sessionID); err != nil {
		m.mu.Unlock()
		m.log.Errorf("ERROR: failed to end session %d: %v", sessionID, err)
		return 0, err
	}

	delete(m.pairs, userID)
	delete(m.pairs, partnerID)
	delete(m.sessions, userID)
	delete(m.sessions, partnerID)
	m.updateGauges()
	m.mu.Unlock()

	metrics.SessionsEndedTotal.WithLabelValues(reason).Inc()
	m.log.Infof("Session %d between %d and %d ended (%s)", sessionID, userID, partnerID, reason)
	m.publish(ctx, models.SessionEvent{Type: models.EventEnded, SessionID: sessionID, UserIDs: []int64{userID, partnerID}, Reason: reason})

	return partnerID, nil
}

// Park додає вільного користувача в чергу очікування та повідомляє про пошук.
// Повторний виклик лише повторює повідомлення.
func (m *ManagerService) Park(ctx context.Context, userID int64) error {
	m.mu.Lock()
	if _, paired := m.pairs[userID]; paired {
		m.mu.Unlock()
		return ErrAlreadyPaired
	}
	m.waiting[userID] = struct{}{}
	m.updateGauges()
	m.mu.Unlock()

	m.notify(ctx, userID, m.Notices.Searching)
	m.publish(ctx, models.SessionEvent{Type: models.EventWaiting, UserIDs: []int64{userID}})
	return nil
}

// RemoveWaiting видаляє userID з черги очікування.
func (m *ManagerService) RemoveWaiting(userID int64) {
	m.mu.Lock()
	delete(m.waiting, userID)
	m.updateGauges()
	m.mu.Unlock()
}

// PartnerOf повертає поточного партнера userID.
func (m *ManagerService) PartnerOf(userID int64) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pairs[userID]
	return p, ok
}

// IsPaired повідомляє, чи userID зараз у парі.
func (m *ManagerService) IsPaired(userID int64) bool {
	_, ok := m.PartnerOf(userID)
	return ok
}

// IsWaiting повідомляє, чи userID чекає в черзі на пару.
func (m *ManagerService) IsWaiting(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.waiting[userID]
	return ok
}

// WaitingCount повертає кількість користувачів у черзі.
func (m *ManagerService) WaitingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting)
}

// Stats доповнює лічильники з БД розміром черги очікування.
func (m *ManagerService) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := m.Storage.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.PendingMatches = m.WaitingCount()
	return stats, nil
}

// Snapshot повертає копії карти пар і черги очікування.
func (m *ManagerService) Snapshot() (map[int64]int64, []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pairs := make(map[int64]int64, len(m.pairs))
	for k, v := range m.pairs {
		pairs[k] = v
	}
	waiting := make([]int64, 0, len(m.waiting))
	for id := range m.waiting {
		waiting = append(waiting, id)
	}
	return pairs, waiting
}

// install викликається лише під mu.
func (m *ManagerService) install(a, b int64, sessionID uint) {
	m.pairs[a] = b
	m.pairs[b] = a
	m.sessions[a] = sessionID
	m.sessions[b] = sessionID
}

// updateGauges викликається лише під mu.
func (m *ManagerService) updateGauges() {
	metrics.ActiveSessions.Set(float64(len(m.pairs) / 2))
	metrics.WaitingUsers.Set(float64(len(m.waiting)))
}

// notify надсилає службове повідомлення. Помилки лише логуються.
func (m *ManagerService) notify(ctx context.Context, userID int64, text string) {
	if text == "" {
		return
	}
	if err := m.Sender.Send(ctx, userID, text, nil); err != nil {
		m.log.Debugf("notice to %d not delivered: %v", userID, err)
	}
}

func (m *ManagerService) publish(ctx context.Context, event models.SessionEvent) {
	event.At = m.now()
	if err := m.Storage.PublishEvent(ctx, event); err != nil {
		m.log.Debugf("session event %s not published: %v", event.Type, err)
	}
}
