package userservice

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"

	"github.com/buckholding/brokerage-api/internal/domain"
	"github.com/buckholding/brokerage-api/pkg/errorspkg"
	"github.com/buckholding/brokerage-api/pkg/passpkg"
	"github.com/buckholding/brokerage-api/pkg/randompkg"
)

func randomUser(t *testing.T) (domain.User, string) {
	t.Helper()

	password := randompkg.String(10)

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		t.Fatalf("passpkg.Hash(%v) failed: %v", password, err)
	}

	return domain.User{
		ID:             1,
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.Owner(),
		Email:          randompkg.Email(),
		FundingBalance: "0",
		HoldingBalance: "0",
	}, password
}

type eqCreateUserParamsMatcher struct {
	arg      domain.CreateUserParams
	password string
}

func (e eqCreateUserParamsMatcher) Matches(x interface{}) bool {
	arg, ok := x.(domain.CreateUserParams)
	if !ok {
		return false
	}

	if err := passpkg.Check(e.password, arg.HashedPassword); err != nil {
		return false
	}

	e.arg.HashedPassword = arg.HashedPassword

	return reflect.DeepEqual(e.arg, arg)
}

func (e eqCreateUserParamsMatcher) String() string {
	return fmt.Sprintf("matches arg %v and password %v", e.arg, e.password)
}

// EqCreateUserParams matches create params whose bcrypt hash verifies against
// the given plaintext password.
func EqCreateUserParams(arg domain.CreateUserParams, password string) gomock.Matcher {
	return eqCreateUserParamsMatcher{arg, password}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	user, password := randomUser(t)

	type input struct {
		Username string
		Password string
		Fullname string
		Email    string
	}

	testCases := []struct {
		name          string
		input         input
		buildStubs    func(userRepo *MockRepo)
		checkResponse func(t *testing.T, got domain.UserWithoutPassword)
		wantError     error
	}{
		{
			name: "OK",
			input: input{
				user.Username,
				password,
				user.FullName,
				user.Email,
			},
			buildStubs: func(userRepo *MockRepo) {
				userRepo.EXPECT().
					Create(gomock.Any(), EqCreateUserParams(
						domain.CreateUserParams{
							Username:       user.Username,
							HashedPassword: user.HashedPassword,
							FullName:       user.FullName,
							Email:          user.Email,
						}, password)).
					Times(1).
					Return(user, nil)
			},
			checkResponse: func(t *testing.T, got domain.UserWithoutPassword) {
				want := NewUserWithoutPassword(user)

				if !cmp.Equal(got, want) {
					t.Errorf("domain.UserWithoutPassword = %+v, want %+v", got, want)
				}
			},
		},
		{
			name: "HashPasswordErr",
			input: input{
				user.Username,
				strings.Repeat("long", 100),
				user.FullName,
				user.Email,
			},
			buildStubs: func(userRepo *MockRepo) {
				userRepo.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantError: errorspkg.ErrInternal,
		},
		{
			name: "UsernameAlreadyExists",
			input: input{
				user.Username,
				password,
				user.FullName,
				user.Email,
			},
			buildStubs: func(userRepo *MockRepo) {
				userRepo.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.User{}, domain.ErrUsernameAlreadyExists)
			},
			wantError: domain.ErrUsernameAlreadyExists,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := NewMockRepo(ctrl)
			userService := New(userRepo)

			tc.buildStubs(userRepo)

			got, err := userService.Create(context.Background(),
				tc.input.Username,
				tc.input.Password,
				tc.input.Fullname,
				tc.input.Email,
			)
			if err != nil {
				if err == tc.wantError {
					return
				}

				t.Fatalf("userService.Create(context.Background(), %v, %v, %v, %v) got error %v, want %v",
					tc.input.Username, tc.input.Password, tc.input.Fullname, tc.input.Email, err, tc.wantError)
			}

			tc.checkResponse(t, got)
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	user, _ := randomUser(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := NewMockRepo(ctrl)
	userService := New(userRepo)

	userRepo.EXPECT().
		Get(gomock.Any(), user.Username).
		Times(1).
		Return(user, nil)

	got, err := userService.Get(context.Background(), user.Username)
	if err != nil {
		t.Fatalf("userService.Get(context.Background(), %v) returned error: %v", user.Username, err)
	}

	want := NewUserWithoutPassword(user)
	if !cmp.Equal(got, want) {
		t.Errorf("domain.UserWithoutPassword = %+v, want %+v", got, want)
	}
}

func TestCheckPassword(t *testing.T) {
	t.Parallel()

	user, password := randomUser(t)

	testCases := []struct {
		name          string
		username      string
		password      string
		buildStubs    func(userRepo *MockRepo)
		checkResponse func(t *testing.T, got domain.UserWithoutPassword)
		wantError     error
	}{
		{
			name:     "OK",
			username: user.Username,
			password: password,
			buildStubs: func(userRepo *MockRepo) {
				userRepo.EXPECT().
					Get(gomock.Any(), user.Username).
					Times(1).
					Return(user, nil)
			},
			checkResponse: func(t *testing.T, got domain.UserWithoutPassword) {
				want := NewUserWithoutPassword(user)

				if !cmp.Equal(got, want) {
					t.Errorf("domain.UserWithoutPassword = %+v, want %+v", got, want)
				}
			},
		},
		{
			name:     "GetUserError",
			username: user.Username,
			password: password,
			buildStubs: func(userRepo *MockRepo) {
				userRepo.EXPECT().
					Get(gomock.Any(), user.Username).
					Times(1).
					Return(domain.User{}, domain.ErrUserNotFound)
			},
			wantError: domain.ErrUserNotFound,
		},
		{
			name:     "WrongPassword",
			username: user.Username,
			password: "wrong",
			buildStubs: func(userRepo *MockRepo) {
				userRepo.EXPECT().
					Get(gomock.Any(), user.Username).
					Times(1).
					Return(user, nil)
			},
			wantError: domain.ErrWrongPassword,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := NewMockRepo(ctrl)
			userService := New(userRepo)

			tc.buildStubs(userRepo)

			got, err := userService.CheckPassword(context.Background(),
				tc.username,
				tc.password,
			)
			if err != nil {
				if err == tc.wantError {
					return
				}

				t.Fatalf("userService.CheckPassword(context.Background(), %v, %v) got error %v, want %v",
					tc.username, tc.password, err, tc.wantError)
			}

			tc.checkResponse(t, got)
		})
	}
}
