package domain

import "testing"

func TestCreateReviewRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateReviewRequest
		wantErr bool
	}{
		{name: "valid", req: CreateReviewRequest{Body: "loved it", Rating: 5}},
		{name: "lowest rating", req: CreateReviewRequest{Body: "meh", Rating: 1}},
		{name: "empty body", req: CreateReviewRequest{Body: "   ", Rating: 3}, wantErr: true},
		{name: "rating too low", req: CreateReviewRequest{Body: "x", Rating: 0}, wantErr: true},
		{name: "rating too high", req: CreateReviewRequest{Body: "x", Rating: 6}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateReviewRequestValidate(t *testing.T) {
	body := "updated"
	empty := "  "
	good := 4
	bad := 9

	if err := (&UpdateReviewRequest{}).Validate(); err == nil {
		t.Error("empty patch accepted")
	}
	if err := (&UpdateReviewRequest{Body: &body}).Validate(); err != nil {
		t.Errorf("body-only patch rejected: %v", err)
	}
	if err := (&UpdateReviewRequest{Body: &empty}).Validate(); err == nil {
		t.Error("blank body accepted")
	}
	if err := (&UpdateReviewRequest{Rating: &good}).Validate(); err != nil {
		t.Errorf("rating-only patch rejected: %v", err)
	}
	if err := (&UpdateReviewRequest{Rating: &bad}).Validate(); err == nil {
		t.Error("out-of-range rating accepted")
	}
}
