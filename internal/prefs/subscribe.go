package prefs

import "context"

type subscription struct {
	ch   chan Preferences
	done chan struct{}
}

// offer replaces any pending snapshot with p. Callers hold Store.mu, which
// makes the store the only sender, so the second send never blocks.
func (sub *subscription) offer(p Preferences) {
	select {
	case sub.ch <- p:
	default:
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- p
	}
}

// Subscribe returns a channel that yields the current snapshot at once and
// then every newly published snapshot. Pending snapshots are replaced, not
// queued. The channel is closed when ctx is done or the store is closed.
func (s *Store) Subscribe(ctx context.Context) <-chan Preferences {
	ch := make(chan Preferences, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextSub
	s.nextSub++
	sub := &subscription{ch: ch, done: make(chan struct{})}
	s.subs[id] = sub
	sub.offer(s.current)
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.removeLocked(id)
			s.mu.Unlock()
		case <-sub.done:
		}
	}()
	return ch
}

func (s *Store) publish(p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
	for _, sub := range s.subs {
		sub.offer(p)
	}
}

func (s *Store) removeLocked(id uint64) {
	sub, ok := s.subs[id]
	if !ok {
		return
	}
	delete(s.subs, id)
	close(sub.ch)
	close(sub.done)
}

// watch maps each snapshot through pick and yields distinct consecutive
// values, conflated the same way as Subscribe.
func watch[T comparable](ctx context.Context, s *Store, pick func(Preferences) T) <-chan T {
	return distinct(s.Subscribe(ctx), pick)
}

// distinct forwards pick(v) for each v on in, keeping at most one value
// buffered. A value equal to the last one the reader received is dropped,
// and a buffered value the reader never took is replaced, so the reader
// never sees the same value twice in a row. out closes when in does.
func distinct[S any, T comparable](in <-chan S, pick func(S) T) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)
		var (
			received T // last value the reader took
			pending  T // value sitting in out
			hasRecv  bool
			hasPend  bool
		)
		for sv := range in {
			v := pick(sv)
			if hasPend {
				select {
				case <-out:
				default:
					// The reader took pending.
					received, hasRecv = pending, true
				}
				hasPend = false
			}
			if hasRecv && v == received {
				continue
			}
			out <- v
			pending, hasPend = v, true
		}
	}()
	return out
}

// Watch yields the value under key each time it changes, starting with the
// current value. Missing values yield def.
func Watch[T string | int](ctx context.Context, s *Store, key Key[T], def T) <-chan T {
	return watch(ctx, s, func(p Preferences) T { return GetOr(p, key, def) })
}
