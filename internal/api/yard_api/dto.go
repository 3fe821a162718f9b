package yard_api

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/services/facility"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// notblank: строка не из одних пробелов.
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic("ошибка регистрации валидаторов: " + err.Error())
	}
	return v
}

// ref is a door or yard slot reference: an id or a number, sent either as a
// JSON string or a JSON number.
type ref string

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ref(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = ref(n.String())
	return nil
}

type trailerRequest struct {
	Number          string `json:"number" validate:"max=32"`
	Carrier         string `json:"carrier" validate:"required,notblank,max=64"`
	Status          string `json:"status" validate:"omitempty,oneof=loaded empty"`
	Contents        string `json:"contents" validate:"max=256"`
	LoadNumber      string `json:"loadNumber" validate:"max=64"`
	Customer        string `json:"customer" validate:"max=128"`
	DriverName      string `json:"driverName" validate:"max=128"`
	DriverPhone     string `json:"driverPhone" validate:"max=32"`
	AppointmentTime string `json:"appointmentTime" validate:"max=64"`
	IsLive          bool   `json:"isLive"`

	Destination string `json:"destination" validate:"omitempty,oneof=yard door yard_slot staging appointment"`
	Door        ref    `json:"door" validate:"required_if=Destination door"`
	YardSlot    ref    `json:"yardSlot" validate:"required_if=Destination yard_slot"`
}

func (r trailerRequest) input() facility.TrailerInput {
	return facility.TrailerInput{
		Number:          r.Number,
		Carrier:         r.Carrier,
		Status:          models.TrailerStatus(r.Status),
		Contents:        r.Contents,
		LoadNumber:      r.LoadNumber,
		Customer:        r.Customer,
		DriverName:      r.DriverName,
		DriverPhone:     r.DriverPhone,
		AppointmentTime: r.AppointmentTime,
		IsLive:          r.IsLive,
		Destination:     models.LocationKind(r.Destination),
		DoorRef:         string(r.Door),
		YardSlotRef:     string(r.YardSlot),
	}
}

type trailerPatchRequest struct {
	Number          *string `json:"number" validate:"omitempty,max=32"`
	Carrier         *string `json:"carrier" validate:"omitempty,notblank,max=64"`
	Status          *string `json:"status" validate:"omitempty,oneof=loaded empty"`
	Contents        *string `json:"contents" validate:"omitempty,max=256"`
	LoadNumber      *string `json:"loadNumber" validate:"omitempty,max=64"`
	Customer        *string `json:"customer" validate:"omitempty,max=128"`
	DriverName      *string `json:"driverName" validate:"omitempty,max=128"`
	DriverPhone     *string `json:"driverPhone" validate:"omitempty,max=32"`
	AppointmentTime *string `json:"appointmentTime" validate:"omitempty,max=64"`
	IsLive          *bool   `json:"isLive"`
}

func (r trailerPatchRequest) patch() facility.TrailerPatch {
	p := facility.TrailerPatch{
		Number:          r.Number,
		Carrier:         r.Carrier,
		Contents:        r.Contents,
		LoadNumber:      r.LoadNumber,
		Customer:        r.Customer,
		DriverName:      r.DriverName,
		DriverPhone:     r.DriverPhone,
		AppointmentTime: r.AppointmentTime,
		IsLive:          r.IsLive,
	}
	if r.Status != nil {
		s := models.TrailerStatus(*r.Status)
		p.Status = &s
	}
	return p
}

type doorRefRequest struct {
	Door ref `json:"door" validate:"required"`
}

type slotRefRequest struct {
	Slot ref `json:"slot" validate:"required"`
}

type orderRequest struct {
	IDs []string `json:"ids" validate:"required,dive,required"`
}

type doorRequest struct {
	Number    *int    `json:"number" validate:"omitempty,min=1"`
	LabelText *string `json:"labelText" validate:"omitempty,max=64"`
	Type      string  `json:"type" validate:"omitempty,oneof=normal blank"`
	InService *bool   `json:"inService"`
}

func (r doorRequest) input() facility.DoorInput {
	return facility.DoorInput{
		Number:    r.Number,
		LabelText: r.LabelText,
		Type:      models.DoorType(r.Type),
		InService: r.InService,
	}
}

type doorPatchRequest struct {
	Number      *int    `json:"number" validate:"omitempty,min=1"`
	ClearNumber bool    `json:"clearNumber"`
	LabelText   *string `json:"labelText" validate:"omitempty,max=64"`
	Type        *string `json:"type" validate:"omitempty,oneof=normal blank"`
	InService   *bool   `json:"inService"`
}

func (r doorPatchRequest) patch() facility.DoorPatch {
	p := facility.DoorPatch{
		Number:      r.Number,
		ClearNumber: r.ClearNumber,
		LabelText:   r.LabelText,
		InService:   r.InService,
	}
	if r.Type != nil {
		t := models.DoorType(*r.Type)
		p.Type = &t
	}
	return p
}

type yardSlotRequest struct {
	Number int `json:"number" validate:"required,min=1"`
}

type carrierRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=64"`
	MCNumber string `json:"mcNumber" validate:"max=32"`
}

type carrierPatchRequest struct {
	MCNumber *string `json:"mcNumber" validate:"omitempty,max=32"`
	Favorite *bool   `json:"favorite"`
}
