package queue

// process writes queued frames until shutdown, then drains what is left.
func (ob *Outbox) process() {
	defer close(ob.done)
	for {
		select {
		case frame := <-ob.queue:
			if !ob.deliver(frame) {
				return
			}
		case <-ob.closed:
			for {
				select {
				case frame := <-ob.queue:
					if !ob.deliver(frame) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (ob *Outbox) deliver(frame []byte) bool {
	if err := ob.write(frame); err != nil {
		log.Debugf("Outbox %s write failed: %v", ob.name, err)
		ob.Shutdown()
		if ob.onError != nil {
			ob.onError(err)
		}
		return false
	}
	ob.mutex.Lock()
	ob.sent++
	ob.mutex.Unlock()
	return true
}
