package storage

import (
	"context"
	"errors"
	"testing"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{name: "plain", value: "materials", wantErr: nil},
		{name: "dotted", value: "company.totals", wantErr: nil},
		{name: "dashed", value: "end-products_v2", wantErr: nil},
		{name: "empty", value: "", wantErr: ErrEmptyString},
		{name: "whitespace only", value: "   ", wantErr: ErrEmptyString},
		{name: "space inside", value: "end products", wantErr: ErrInvalidName},
		{name: "quote", value: "a'b", wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateName(tt.value, "table")
			if tt.wantErr == nil && err != nil {
				t.Errorf("validateName() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("validateName() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", "json", "msgpack"} {
		if _, err := CodecByName(name); err != nil {
			t.Errorf("CodecByName(%q) error = %v", name, err)
		}
	}
	if _, err := CodecByName("xml"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("CodecByName(xml) error = %v, want %v", err, ErrUnknownCodec)
	}
}
