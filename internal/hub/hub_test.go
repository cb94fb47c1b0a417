package hub

import (
	"context"
	"testing"
	"time"

	"github.com/inin7674/lol-team/internal/auction"
	"github.com/inin7674/lol-team/internal/room"
	"github.com/inin7674/lol-team/internal/store"
)

func TestHub_Ensure_Lookup_SamePointer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := New(ctx, Deps{Store: store.NewMemory()})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- Ensure{Code: "ZED123", Reply: reply}
	rm1 := <-reply

	h.Inbox() <- Lookup{Code: "ZED123", Reply: reply}
	rm2 := <-reply

	if rm1 == nil || rm2 == nil || rm1 != rm2 {
		t.Fatalf("expected same room pointer")
	}
}

func TestHub_Lookup_UnknownCodeIsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := New(ctx, Deps{Store: store.NewMemory()})
	reply := make(chan *room.Room, 1)
	h.Inbox() <- Lookup{Code: "NOPE42", Reply: reply}
	if rm := <-reply; rm != nil {
		t.Fatalf("expected nil for unknown code, got %v", rm.Code())
	}
}

func TestHub_Lookup_RevivesPersistedRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := store.NewMemory()
	persisted := auction.NewRoom("ZED123", time.UnixMilli(0))
	persisted.Initialized = true
	persisted.Team("A").CaptainName = "Faker"
	if err := st.Save(context.Background(), persisted); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	h := New(ctx, Deps{Store: st})
	reply := make(chan *room.Room, 1)
	h.Inbox() <- Lookup{Code: "ZED123", Reply: reply}
	rm := <-reply
	if rm == nil {
		t.Fatalf("expected persisted room to be revived")
	}

	view := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: view}
	select {
	case v := <-view:
		if !v.Initialized {
			t.Fatalf("revived room should be initialized")
		}
		if v.State.Teams[0].CaptainName != "Faker" {
			t.Fatalf("revived room lost committed state: %+v", v.State.Teams[0])
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view")
	}
}

func TestHub_Remove_ShutsRoomDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// no store: a removed room is gone for good
	h := New(ctx, Deps{})
	reply := make(chan *room.Room, 1)
	h.Inbox() <- Ensure{Code: "ZED123", Reply: reply}
	<-reply

	h.Inbox() <- Remove{Code: "ZED123"}

	h.Inbox() <- Lookup{Code: "ZED123", Reply: reply}
	if rm := <-reply; rm != nil {
		t.Fatalf("expected removed room to be gone")
	}
}
