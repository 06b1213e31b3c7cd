package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
)

type createRequest struct {
	FriendID string `json:"friendId" validate:"required,uuid"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"friendId":"a2f47f5e-9a64-4a5c-9562-47d2ea0c3a06"}`))

	var body createRequest
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("DecodeJSONBody: %v", err)
	}
	if body.FriendID == "" {
		t.Fatal("friend id not decoded")
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"friendId":"a2f47f5e-9a64-4a5c-9562-47d2ea0c3a06","extra":1}`))

	var body createRequest
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyFieldMessagesUseJSONNames(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))

	var body createRequest
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
	if details["friendId"] != "is required" {
		t.Fatalf("unexpected detail %q", details["friendId"])
	}
}
