package facility

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/BearBump/YardBox/internal/broker/messages"
	cachemocks "github.com/BearBump/YardBox/internal/cache/mocks"
	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ServiceSuite struct {
	suite.Suite

	ctx     context.Context
	state   *memState
	history *memHistory
	svc     *Service

	door5, door6, blank, oos *models.Door
	slot1                    *models.YardSlot
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.state = newMemState()
	s.history = newMemHistory()
	clock := &stepClock{t: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	ids := &seqIDs{}
	s.svc = New(s.state, s.history).WithClock(clock.Now).WithIDs(ids.Next)

	s.door5 = s.createDoor(DoorInput{Number: models.IntPtr(5)})
	s.door6 = s.createDoor(DoorInput{Number: models.IntPtr(6)})
	s.blank = s.createDoor(DoorInput{Type: models.DoorTypeBlank, LabelText: strPtr("Wall")})
	off := false
	s.oos = s.createDoor(DoorInput{Number: models.IntPtr(8), InService: &off})

	res, err := s.svc.CreateYardSlot(s.ctx, 1)
	s.Require().NoError(err)
	s.slot1 = res.YardSlot
}

func strPtr(v string) *string { return &v }

func (s *ServiceSuite) createDoor(in DoorInput) *models.Door {
	res, err := s.svc.CreateDoor(s.ctx, in)
	s.Require().NoError(err)
	return res.Door
}

func (s *ServiceSuite) newTrailer(number string, dest models.LocationKind, ref string) *models.Trailer {
	in := TrailerInput{Number: number, Carrier: "ACME", Destination: dest}
	switch dest {
	case models.LocationDoor:
		in.DoorRef = ref
	case models.LocationYardSlot:
		in.YardSlotRef = ref
	}
	res, err := s.svc.CreateTrailer(s.ctx, in)
	s.Require().NoError(err)
	return res.Trailer
}

func (s *ServiceSuite) current() *models.FacilityState {
	st, err := s.svc.State(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(st.Validate())
	return st
}

func (s *ServiceSuite) requireCode(err error, code yarderr.Code) {
	s.Require().Error(err)
	s.Require().Equal(code, yarderr.CodeOf(err), err.Error())
}

func (s *ServiceSuite) TestQueueAssignmentOnDeparture() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	t2 := s.newTrailer("T2", models.LocationStaging, "")

	_, err := s.svc.Enqueue(s.ctx, t2.ID, "5")
	s.Require().NoError(err)

	res, err := s.svc.MoveToYard(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().NotNil(res.Assigned)
	s.Require().Equal(t2.ID, res.Assigned.ID)

	st := s.current()
	d, _ := st.DoorByID(s.door5.ID)
	s.Require().Equal(t2.ID, *d.TrailerID)
	s.Require().Empty(st.QueuedTrailers)
	s.Require().Len(st.YardTrailers, 1)
	s.Require().Equal(t1.ID, st.YardTrailers[0].ID)

	got, _ := st.Locate(t2.ID)
	s.Require().Equal(models.LocationDoor, got.Location)
	s.Require().Equal(5, *got.DoorNumber)
	s.Require().Empty(got.TargetDoorID)
	s.Require().Nil(got.QueuedAt)

	last := s.history.all()[0]
	s.Require().Equal(models.ActionMovedToYard, last.Action)
	s.Require().Equal("Door 5", last.PreviousLocation)
	s.Require().NotNil(last.AssignedFromQueue)
	s.Require().Equal(models.ActionAssignedFromQueue, last.AssignedFromQueue.Action)
	s.Require().Equal(t2.ID, last.AssignedFromQueue.TrailerID)
}

func (s *ServiceSuite) TestMoveToOccupiedDoorEvicts() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	t2 := s.newTrailer("T2", models.LocationYard, "")

	res, err := s.svc.MoveToDoor(s.ctx, t2.ID, s.door5.ID)
	s.Require().NoError(err)
	s.Require().NotNil(res.Evicted)
	s.Require().Equal(t1.ID, res.Evicted.ID)
	s.Require().Len(res.History, 2)
	s.Require().Equal(models.ActionMovedToYard, res.History[0].Action)
	s.Require().Equal(models.ReasonReplaced, res.History[0].Reason)
	s.Require().Equal(models.ActionMovedToDoor, res.History[1].Action)

	st := s.current()
	evicted, _ := st.Locate(t1.ID)
	s.Require().Equal(models.LocationYard, evicted.Location)
	s.Require().Empty(evicted.DoorID)
	s.Require().Nil(evicted.DoorNumber)
}

func (s *ServiceSuite) TestMoveBetweenDoorsFreesOldDoor() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	t2 := s.newTrailer("T2", models.LocationStaging, "")
	_, err := s.svc.Enqueue(s.ctx, t2.ID, "5")
	s.Require().NoError(err)

	res, err := s.svc.MoveToDoor(s.ctx, t1.ID, "6")
	s.Require().NoError(err)
	s.Require().NotNil(res.FreedDoor)
	s.Require().Equal(s.door5.ID, res.FreedDoor.ID)
	s.Require().Equal(t2.ID, res.Assigned.ID)

	st := s.current()
	d6, _ := st.DoorByID(s.door6.ID)
	s.Require().Equal(t1.ID, *d6.TrailerID)
	d5, _ := st.DoorByID(s.door5.ID)
	s.Require().Equal(t2.ID, *d5.TrailerID)
}

func (s *ServiceSuite) TestQueueIsFIFO() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	t2 := s.newTrailer("T2", models.LocationStaging, "")
	_, err := s.svc.Enqueue(s.ctx, t2.ID, "5")
	s.Require().NoError(err)
	t3 := s.newTrailer("T3", models.LocationAppointment, "")
	_, err = s.svc.Enqueue(s.ctx, t3.ID, "5")
	s.Require().NoError(err)

	res, err := s.svc.Ship(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().Equal(t2.ID, res.Assigned.ID)

	st := s.current()
	s.Require().Len(st.QueuedTrailers, 1)
	s.Require().Equal(t3.ID, st.QueuedTrailers[0].ID)
	s.Require().Len(st.ShippedTrailers, 1)
	s.Require().Equal("Door 5", st.ShippedTrailers[0].PreviousLocation)
}

func (s *ServiceSuite) TestReassignMovesToBackOfLine() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	t2 := s.newTrailer("T2", models.LocationStaging, "")
	_, err := s.svc.Enqueue(s.ctx, t2.ID, "6")
	s.Require().NoError(err)
	t3 := s.newTrailer("T3", models.LocationStaging, "")
	_, err = s.svc.Enqueue(s.ctx, t3.ID, "5")
	s.Require().NoError(err)

	res, err := s.svc.ReassignQueue(s.ctx, t2.ID, "5")
	s.Require().NoError(err)
	s.Require().Equal(5, *res.Trailer.TargetDoorNumber)

	out, err := s.svc.MoveToYard(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().Equal(t3.ID, out.Assigned.ID)
}

func (s *ServiceSuite) TestEnqueueOnEmptyDoorWaits() {
	t1 := s.newTrailer("T1", models.LocationStaging, "")
	res, err := s.svc.Enqueue(s.ctx, t1.ID, "5")
	s.Require().NoError(err)
	s.Require().Equal(models.LocationQueue, res.Trailer.Location)

	st := s.current()
	d, _ := st.DoorByID(s.door5.ID)
	s.Require().False(d.Occupied())
}

func (s *ServiceSuite) TestBlankAndOutOfServiceDoorsRejected() {
	t1 := s.newTrailer("T1", models.LocationYard, "")

	_, err := s.svc.MoveToDoor(s.ctx, t1.ID, s.blank.ID)
	s.requireCode(err, yarderr.CodeInvalidArgument)
	_, err = s.svc.MoveToDoor(s.ctx, t1.ID, "8")
	s.requireCode(err, yarderr.CodeInvalidArgument)

	t2 := s.newTrailer("T2", models.LocationStaging, "")
	_, err = s.svc.Enqueue(s.ctx, t2.ID, s.blank.ID)
	s.requireCode(err, yarderr.CodeInvalidArgument)

	_, err = s.svc.CreateTrailer(s.ctx, TrailerInput{Carrier: "ACME", Destination: models.LocationDoor, DoorRef: "8"})
	s.requireCode(err, yarderr.CodeInvalidArgument)
}

func (s *ServiceSuite) TestStagingHoldsOne() {
	s.newTrailer("T1", models.LocationStaging, "")
	t2 := s.newTrailer("T2", models.LocationYard, "")

	before := len(s.history.all())
	_, err := s.svc.MoveToStaging(s.ctx, t2.ID)
	s.requireCode(err, yarderr.CodeConflict)
	s.Require().Len(s.history.all(), before)

	appt := s.newTrailer("A1", models.LocationAppointment, "")
	_, err = s.svc.CheckIn(s.ctx, appt.ID)
	s.requireCode(err, yarderr.CodeConflict)
}

func (s *ServiceSuite) TestCheckInAndCancel() {
	appt, err := s.svc.AddAppointment(s.ctx, TrailerInput{Number: "A1", Carrier: "Swift"})
	s.Require().NoError(err)
	s.Require().Equal(models.ActionAppointmentAdded, appt.History[0].Action)

	res, err := s.svc.CheckIn(s.ctx, appt.Trailer.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.LocationStaging, res.Trailer.Location)

	_, err = s.svc.CheckIn(s.ctx, appt.Trailer.ID)
	s.requireCode(err, yarderr.CodeInvalidArgument)

	_, err = s.svc.Enqueue(s.ctx, appt.Trailer.ID, "6")
	s.Require().NoError(err)
	res, err = s.svc.CancelQueue(s.ctx, appt.Trailer.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.LocationYard, res.Trailer.Location)
	s.Require().Empty(res.Trailer.TargetDoorID)
	s.Require().Nil(s.current().Staging)
}

func (s *ServiceSuite) TestShippedIsTerminal() {
	t1 := s.newTrailer("T1", models.LocationYardSlot, "1")
	_, err := s.svc.Ship(s.ctx, t1.ID)
	s.Require().NoError(err)

	st := s.current()
	y, _ := st.SlotByID(s.slot1.ID)
	s.Require().False(y.Occupied())

	_, err = s.svc.MoveToDoor(s.ctx, t1.ID, "5")
	s.requireCode(err, yarderr.CodeInvalidArgument)
	_, err = s.svc.Ship(s.ctx, t1.ID)
	s.requireCode(err, yarderr.CodeInvalidArgument)

	shipped, err := s.svc.SearchShipped(s.ctx, "t1")
	s.Require().NoError(err)
	s.Require().Len(shipped, 1)

	res, err := s.svc.DeleteTrailer(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.ActionTrailerDeleted, res.History[0].Action)
	s.Require().Empty(s.current().ShippedTrailers)
}

func (s *ServiceSuite) TestNotFound() {
	_, err := s.svc.MoveToYard(s.ctx, "missing")
	s.requireCode(err, yarderr.CodeNotFound)
	t1 := s.newTrailer("T1", models.LocationYard, "")
	_, err = s.svc.MoveToDoor(s.ctx, t1.ID, "99")
	s.requireCode(err, yarderr.CodeNotFound)
	_, err = s.svc.MoveToYardSlot(s.ctx, t1.ID, "42")
	s.requireCode(err, yarderr.CodeNotFound)
	_, err = s.svc.FindTrailer(s.ctx, "missing")
	s.requireCode(err, yarderr.CodeNotFound)
}

func (s *ServiceSuite) TestDuplicateActiveNumber() {
	s.newTrailer("T1", models.LocationYard, "")
	_, err := s.svc.CreateTrailer(s.ctx, TrailerInput{Number: "t1", Carrier: "ACME"})
	s.requireCode(err, yarderr.CodeConflict)

	_, err = s.svc.CreateTrailer(s.ctx, TrailerInput{Number: "T9"})
	s.requireCode(err, yarderr.CodeInvalidArgument)
	_, err = s.svc.CreateTrailer(s.ctx, TrailerInput{Number: "T9", Carrier: "ACME", Status: "full"})
	s.requireCode(err, yarderr.CodeInvalidArgument)
}

func (s *ServiceSuite) TestUpdateTrailerRecordsChanges() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	status := models.TrailerStatusEmpty
	res, err := s.svc.UpdateTrailer(s.ctx, t1.ID, TrailerPatch{Status: &status, Customer: strPtr("Target"), Carrier: strPtr("Swift")})
	s.Require().NoError(err)
	s.Require().Len(res.History, 1)
	s.Require().Len(res.History[0].Changes, 3)

	st := s.current()
	d, _ := st.DoorByID(s.door5.ID)
	s.Require().Equal("empty", d.Status)
	_, ok := st.CarrierByName("swift")
	s.Require().True(ok)

	res, err = s.svc.UpdateTrailer(s.ctx, t1.ID, TrailerPatch{Customer: strPtr("Target")})
	s.Require().NoError(err)
	s.Require().Empty(res.History)
}

func (s *ServiceSuite) TestResetDwellKeepsTen() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	created := t1.CreatedAt
	for i := 0; i < 12; i++ {
		_, err := s.svc.ResetDwell(s.ctx, t1.ID)
		s.Require().NoError(err)
	}
	got, err := s.svc.FindTrailer(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().Len(got.DwellResets, models.MaxDwellResets)
	s.Require().True(created.Equal(got.CreatedAt))
}

func (s *ServiceSuite) TestDoorAdmin() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	blank := models.DoorTypeBlank
	_, err := s.svc.UpdateDoor(s.ctx, "5", DoorPatch{Type: &blank})
	s.requireCode(err, yarderr.CodeConflict)
	_, err = s.svc.DeleteDoor(s.ctx, "5")
	s.requireCode(err, yarderr.CodeConflict)

	t2 := s.newTrailer("T2", models.LocationStaging, "")
	_, err = s.svc.Enqueue(s.ctx, t2.ID, "6")
	s.Require().NoError(err)
	_, err = s.svc.DeleteDoor(s.ctx, "6")
	s.requireCode(err, yarderr.CodeConflict)

	res, err := s.svc.UpdateDoor(s.ctx, "5", DoorPatch{Number: models.IntPtr(15)})
	s.Require().NoError(err)
	s.Require().Equal(15, *res.Door.Number)
	got, _ := s.svc.FindTrailer(s.ctx, t1.ID)
	s.Require().Equal(15, *got.DoorNumber)

	_, err = s.svc.UpdateDoor(s.ctx, "6", DoorPatch{Number: models.IntPtr(15)})
	s.Require().NoError(err)
	st := s.current()
	d, ok := st.DoorByRef("15")
	s.Require().True(ok)
	s.Require().Equal(s.door5.ID, d.ID)

	ids := make([]string, 0, len(st.Doors))
	for i := len(st.Doors) - 1; i >= 0; i-- {
		ids = append(ids, st.Doors[i].ID)
	}
	_, err = s.svc.ReorderDoors(s.ctx, ids)
	s.Require().NoError(err)
	st = s.current()
	s.Require().Equal(ids[0], st.Doors[0].ID)
	s.Require().Equal(0, st.Doors[0].Order)

	_, err = s.svc.ReorderDoors(s.ctx, ids[1:])
	s.requireCode(err, yarderr.CodeInvalidArgument)
}

func (s *ServiceSuite) TestDuplicateDoorNumbers() {
	first := s.createDoor(DoorInput{Number: models.IntPtr(5)})
	second := s.createDoor(DoorInput{Number: models.IntPtr(5)})
	s.Require().NotEqual(first.ID, second.ID)

	st := s.current()
	var numbered []string
	for _, d := range st.Doors {
		if d.Number != nil && *d.Number == 5 {
			numbered = append(numbered, d.ID)
		}
	}
	s.Require().Equal([]string{s.door5.ID, first.ID, second.ID}, numbered)

	// по номеру находится первая дверь
	t1 := s.newTrailer("T1", models.LocationYard, "")
	_, err := s.svc.MoveToDoor(s.ctx, t1.ID, "5")
	s.Require().NoError(err)
	got, _ := s.svc.FindTrailer(s.ctx, t1.ID)
	s.Require().Equal(s.door5.ID, got.DoorID)

	_, err = s.svc.MoveToDoor(s.ctx, t1.ID, second.ID)
	s.Require().NoError(err)
	st = s.current()
	d, _ := st.DoorByID(second.ID)
	s.Require().Equal(t1.ID, *d.TrailerID)
	d, _ = st.DoorByID(s.door5.ID)
	s.Require().False(d.Occupied())
}

func (s *ServiceSuite) TestYardSlots() {
	_, err := s.svc.CreateYardSlot(s.ctx, 1)
	s.requireCode(err, yarderr.CodeConflict)
	_, err = s.svc.CreateYardSlot(s.ctx, 0)
	s.requireCode(err, yarderr.CodeInvalidArgument)

	t1 := s.newTrailer("T1", models.LocationYard, "")
	_, err = s.svc.MoveToYardSlot(s.ctx, t1.ID, "1")
	s.Require().NoError(err)
	_, err = s.svc.DeleteYardSlot(s.ctx, "1")
	s.requireCode(err, yarderr.CodeConflict)

	t2 := s.newTrailer("T2", models.LocationYard, "")
	res, err := s.svc.MoveToYardSlot(s.ctx, t2.ID, "1")
	s.Require().NoError(err)
	s.Require().Equal(t1.ID, res.Evicted.ID)
}

func (s *ServiceSuite) TestCarriers() {
	s.newTrailer("T1", models.LocationYard, "")
	s.newTrailer("T2", models.LocationYard, "")
	swift, err := s.svc.CreateCarrier(s.ctx, "Swift", "MC-1")
	s.Require().NoError(err)
	_, err = s.svc.CreateCarrier(s.ctx, "swift", "")
	s.requireCode(err, yarderr.CodeConflict)
	_, err = s.svc.CreateCarrier(s.ctx, "  ", "")
	s.requireCode(err, yarderr.CodeInvalidArgument)
	_, err = s.svc.CreateCarrier(s.ctx, "Allied", "")
	s.Require().NoError(err)

	list, err := s.svc.ListCarriers(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal([]string{"ACME", "Allied", "Swift"}, carrierNames(list))
	s.Require().Equal(2, list[0].UsageCount)

	fav := true
	_, err = s.svc.UpdateCarrier(s.ctx, swift.ID, CarrierPatch{Favorite: &fav})
	s.Require().NoError(err)
	list, _ = s.svc.ListCarriers(s.ctx)
	s.Require().Equal("Swift", list[0].Name)

	acme, _ := s.current().CarrierByName("ACME")
	s.requireCode(s.svc.DeleteCarrier(s.ctx, acme.ID), yarderr.CodeConflict)
	s.Require().NoError(s.svc.DeleteCarrier(s.ctx, swift.ID))
	s.requireCode(s.svc.DeleteCarrier(s.ctx, swift.ID), yarderr.CodeNotFound)
}

func carrierNames(cs []*models.Carrier) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func (s *ServiceSuite) TestReorderAppointments() {
	a := s.newTrailer("A", models.LocationAppointment, "")
	b := s.newTrailer("B", models.LocationAppointment, "")

	_, err := s.svc.ReorderAppointments(s.ctx, []string{b.ID, a.ID})
	s.Require().NoError(err)
	st := s.current()
	s.Require().Equal(b.ID, st.AppointmentQueue[0].ID)

	_, err = s.svc.ReorderAppointments(s.ctx, []string{b.ID, b.ID})
	s.requireCode(err, yarderr.CodeInvalidArgument)
	_, err = s.svc.ReorderAppointments(s.ctx, []string{b.ID, "x"})
	s.requireCode(err, yarderr.CodeInvalidArgument)
}

func (s *ServiceSuite) TestHistoryFailureRestoresState() {
	t1 := s.newTrailer("T1", models.LocationYard, "")
	s.history.err = errBoom

	_, err := s.svc.MoveToDoor(s.ctx, t1.ID, "5")
	s.requireCode(err, yarderr.CodeInternal)

	s.history.err = nil
	got, err := s.svc.FindTrailer(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.LocationYard, got.Location)
}

func (s *ServiceSuite) TestLoadFailureIsInternal() {
	s.state.loadErr = errBoom
	_, err := s.svc.State(s.ctx)
	s.requireCode(err, yarderr.CodeInternal)
	_, err = s.svc.CreateDoor(s.ctx, DoorInput{})
	s.requireCode(err, yarderr.CodeInternal)
}

func (s *ServiceSuite) TestTimelineAndHistoryQuery() {
	t1 := s.newTrailer("T1", models.LocationYard, "")
	_, err := s.svc.MoveToDoor(s.ctx, t1.ID, "5")
	s.Require().NoError(err)
	_, err = s.svc.MoveToYard(s.ctx, t1.ID)
	s.Require().NoError(err)

	tl, err := s.svc.Timeline(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().Len(tl, 3)
	s.Require().Equal(models.ActionTrailerCreated, tl[0].Action)
	s.Require().Equal(models.ActionMovedToYard, tl[2].Action)

	found, err := s.svc.History(s.ctx, models.HistoryFilter{Search: "door 5", Actions: []models.Action{models.ActionMovedToDoor}})
	s.Require().NoError(err)
	s.Require().Len(found, 1)

	from, to := time.Now(), time.Now().Add(-time.Hour)
	_, err = s.svc.History(s.ctx, models.HistoryFilter{From: &from, To: &to})
	s.requireCode(err, yarderr.CodeInvalidArgument)
}

func (s *ServiceSuite) TestHistoryIsBounded() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	for i := 0; i < 1005; i++ {
		_, err := s.svc.ResetDwell(s.ctx, t1.ID)
		s.Require().NoError(err)
	}
	s.Require().Len(s.history.all(), 1000)
}

// holders lists every container that holds the trailer.
func holders(st *models.FacilityState, id string) []string {
	var out []string
	add := func(name string, list []*models.Trailer) {
		for _, t := range list {
			if t.ID == id {
				out = append(out, name)
			}
		}
	}
	add("trailers", st.Trailers)
	add("yard", st.YardTrailers)
	add("queue", st.QueuedTrailers)
	add("appointments", st.AppointmentQueue)
	add("shipped", st.ShippedTrailers)
	if st.Staging != nil && st.Staging.ID == id {
		out = append(out, "staging")
	}
	return out
}

func (s *ServiceSuite) requireHeldBy(id string, want ...string) *models.FacilityState {
	st := s.current()
	s.Require().Equal(want, holders(st, id))
	return st
}

func (s *ServiceSuite) TestDeleteDockedAssignsFromQueue() {
	t1 := s.newTrailer("T1", models.LocationDoor, "5")
	t2 := s.newTrailer("T2", models.LocationStaging, "")
	s.requireHeldBy(t1.ID, "trailers")
	s.requireHeldBy(t2.ID, "staging")

	_, err := s.svc.Enqueue(s.ctx, t2.ID, "5")
	s.Require().NoError(err)
	st := s.requireHeldBy(t2.ID, "queue")
	s.Require().Nil(st.Staging)

	res, err := s.svc.DeleteTrailer(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().NotNil(res.FreedDoor)
	s.Require().Equal(s.door5.ID, res.FreedDoor.ID)
	s.Require().NotNil(res.Assigned)
	s.Require().Equal(t2.ID, res.Assigned.ID)

	st = s.requireHeldBy(t1.ID)
	_, found := st.Locate(t1.ID)
	s.Require().False(found)
	s.requireHeldBy(t2.ID, "trailers")
	s.Require().Empty(st.QueuedTrailers)

	d, _ := st.DoorByID(s.door5.ID)
	s.Require().Equal(t2.ID, *d.TrailerID)
	got, _ := st.Locate(t2.ID)
	s.Require().Equal(models.LocationDoor, got.Location)
	s.Require().Equal(5, *got.DoorNumber)
	s.Require().Empty(got.TargetDoorID)

	last := s.history.all()[0]
	s.Require().Equal(models.ActionTrailerDeleted, last.Action)
	s.Require().Equal("Door 5", last.PreviousLocation)
	s.Require().NotNil(last.AssignedFromQueue)
	s.Require().Equal(t2.ID, last.AssignedFromQueue.TrailerID)
}

func (s *ServiceSuite) TestRoundTrip() {
	slot, err := s.svc.CreateYardSlot(s.ctx, 12)
	s.Require().NoError(err)

	t1 := s.newTrailer("T1", models.LocationYard, "")
	s.requireHeldBy(t1.ID, "yard")

	_, err = s.svc.MoveToDoor(s.ctx, t1.ID, "5")
	s.Require().NoError(err)
	st := s.requireHeldBy(t1.ID, "trailers")
	d, _ := st.DoorByID(s.door5.ID)
	s.Require().Equal(t1.ID, *d.TrailerID)

	_, err = s.svc.MoveToYard(s.ctx, t1.ID)
	s.Require().NoError(err)
	st = s.requireHeldBy(t1.ID, "yard")
	d, _ = st.DoorByID(s.door5.ID)
	s.Require().False(d.Occupied())

	_, err = s.svc.MoveToYardSlot(s.ctx, t1.ID, "12")
	s.Require().NoError(err)
	st = s.requireHeldBy(t1.ID, "trailers")
	ys, _ := st.SlotByID(slot.YardSlot.ID)
	s.Require().Equal(t1.ID, *ys.TrailerID)
	got, _ := st.Locate(t1.ID)
	s.Require().Equal(models.LocationYardSlot, got.Location)

	_, err = s.svc.Ship(s.ctx, t1.ID)
	s.Require().NoError(err)
	st = s.requireHeldBy(t1.ID, "shipped")
	d, _ = st.DoorByID(s.door5.ID)
	s.Require().False(d.Occupied())
	ys, _ = st.SlotByID(slot.YardSlot.ID)
	s.Require().False(ys.Occupied())
	s.Require().Empty(st.ActiveTrailers())
}

// Random walks over the public operations must never break container
// exclusivity or the door and slot mirrors.
func (s *ServiceSuite) TestRandomWalkKeepsInvariants() {
	rnd := rand.New(rand.NewSource(7))
	doors := []string{"5", "6", s.blank.ID, "8"}
	var ids []string
	for i := 0; i < 6; i++ {
		ids = append(ids, s.newTrailer("R"+string(rune('A'+i)), models.LocationYard, "").ID)
	}
	ops := []func(id string) error{
		func(id string) error { _, err := s.svc.MoveToDoor(s.ctx, id, doors[rnd.Intn(len(doors))]); return err },
		func(id string) error { _, err := s.svc.MoveToYard(s.ctx, id); return err },
		func(id string) error { _, err := s.svc.MoveToYardSlot(s.ctx, id, "1"); return err },
		func(id string) error { _, err := s.svc.MoveToStaging(s.ctx, id); return err },
		func(id string) error { _, err := s.svc.Enqueue(s.ctx, id, doors[rnd.Intn(2)]); return err },
		func(id string) error { _, err := s.svc.ReassignQueue(s.ctx, id, doors[rnd.Intn(2)]); return err },
		func(id string) error { _, err := s.svc.CancelQueue(s.ctx, id); return err },
		func(id string) error { _, err := s.svc.ResetDwell(s.ctx, id); return err },
	}
	for i := 0; i < 400; i++ {
		id := ids[rnd.Intn(len(ids))]
		err := ops[rnd.Intn(len(ops))](id)
		if err != nil {
			s.Require().NotEqual(yarderr.CodeInternal, yarderr.CodeOf(err), err.Error())
		}
		st := s.current()
		s.Require().Len(st.ActiveTrailers(), len(ids))
	}
}

func (s *ServiceSuite) TestPublishesEveryEntry() {
	pub := &publisherMock{}
	s.svc.WithPublisher(pub, "yard.history")
	pub.On("Publish", mock.Anything, "yard.history", mock.Anything, mock.MatchedBy(func(b []byte) bool {
		m, err := messages.DecodeHistoryRecorded(b)
		return err == nil && m.Action != ""
	})).Return(nil)

	s.newTrailer("T1", models.LocationDoor, "5")
	t2 := s.newTrailer("T2", models.LocationYard, "")
	// вытеснение даёт две записи
	_, err := s.svc.MoveToDoor(s.ctx, t2.ID, "5")
	s.Require().NoError(err)
	pub.AssertNumberOfCalls(s.T(), "Publish", 4)
}

func (s *ServiceSuite) TestPublishFailureDoesNotFailTransition() {
	pub := &publisherMock{}
	s.svc.WithPublisher(pub, "yard.history")
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errBoom)

	res, err := s.svc.CreateYardSlot(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Equal(2, res.YardSlot.Number)
}

func (s *ServiceSuite) TestStateCache() {
	c := &cachemocks.MockBytesCache{}
	s.svc.WithCache(c, time.Minute)

	snapshot := models.NewFacilityState()
	snapshot.Doors = append(snapshot.Doors, &models.Door{ID: "cached", Type: models.DoorTypeNormal})
	b, _ := json.Marshal(snapshot)
	c.On("Get", mock.Anything, StateCacheKey).Return(b, true, nil).Once()

	s.state.loadErr = errBoom
	st, err := s.svc.State(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal("cached", st.Doors[0].ID)

	s.state.loadErr = nil
	c.On("Set", mock.Anything, StateCacheKey, mock.Anything, time.Minute).Return(nil).Once()
	_, err = s.svc.CreateYardSlot(s.ctx, 9)
	s.Require().NoError(err)
	c.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestCacheFollowsWriteOrder() {
	c := newBlockingCache()
	s.svc.WithCache(c, time.Minute)

	done := make(chan error, 2)
	go func() {
		_, err := s.svc.CreateDoor(s.ctx, DoorInput{Number: models.IntPtr(9)})
		done <- err
	}()
	<-c.entered

	go func() {
		_, err := s.svc.CreateDoor(s.ctx, DoorInput{Number: models.IntPtr(10)})
		done <- err
	}()
	// вторая запись успевает дойти до лока
	time.Sleep(50 * time.Millisecond)
	close(c.release)

	s.Require().NoError(<-done)
	s.Require().NoError(<-done)

	stored, err := s.state.Load(s.ctx)
	s.Require().NoError(err)
	st := s.current()
	s.Require().Len(stored.Doors, 6)
	s.Require().Len(st.Doors, len(stored.Doors))
	_, ok := st.DoorByRef("10")
	s.Require().True(ok)
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
