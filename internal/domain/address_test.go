package domain

import "testing"

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{
			name:    "wrapped SOL mint",
			address: "So11111111111111111111111111111111111111112",
			wantErr: false,
		},
		{
			name:    "USDC mint",
			address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			wantErr: false,
		},
		{
			name:    "too short",
			address: "abc",
			wantErr: true,
		},
		{
			name:    "invalid base58 characters",
			address: "0OIl+/=not-base58-at-all-0OIl+/=0OIl+/=0OIl",
			wantErr: true,
		},
		{
			name:    "empty",
			address: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
		})
	}
}

func TestIsOnCurve(t *testing.T) {
	// The system program ID is a valid curve point.
	if !IsOnCurve("11111111111111111111111111111111") {
		t.Error("expected system program address to be on curve")
	}
	if IsOnCurve("not-an-address") {
		t.Error("expected invalid base58 to be off curve")
	}
}
