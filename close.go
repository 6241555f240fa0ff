package pointflow

// Close releases the point views held by this Manager and returns their
// memory to the resource accounting. Views obtained from Views must not be
// used afterwards. Close is idempotent. Loading, execution and the result
// accessors return ErrInvalidState once the Manager is closed.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.views != nil {
		m.views.Release()
		m.views = nil
	}
	return nil
}
