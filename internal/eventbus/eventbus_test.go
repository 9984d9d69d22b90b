package eventbus

import "testing"

func TestPublishFanOut(t *testing.T) {
	b := New()
	s1 := b.Subscribe(4)
	s2 := b.Subscribe(4)

	b.Publish("one")
	b.Publish("two")

	for _, sub := range []<-chan Event{s1, s2} {
		if got := <-sub; got != "one" {
			t.Fatalf("first event: %v", got)
		}
		if got := <-sub; got != "two" {
			t.Fatalf("second event: %v", got)
		}
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)

	b.Publish(1)
	b.Publish(2) // dropped, buffer full

	if got := <-sub; got != 1 {
		t.Fatalf("kept event: %v", got)
	}
	select {
	case e := <-sub:
		t.Fatalf("unexpected event: %v", e)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed")
	}
	b.Publish("ignored") // must not panic on a removed subscriber
}

func TestCloseIsTerminal(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)
	b.Close()
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed")
	}
	b.Publish("ignored")
	b.Close()

	late := b.Subscribe(1)
	if _, ok := <-late; ok {
		t.Fatal("post-close subscription should be closed")
	}
}
