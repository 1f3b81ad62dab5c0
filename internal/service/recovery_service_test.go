package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"socialhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recoveryFixture struct {
	env    *testEnv
	svc    *RecoveryService
	mailer *mailerStub
	clock  time.Time
	codes  []string
}

func newRecoveryFixture(t *testing.T) *recoveryFixture {
	t.Helper()
	env := newTestEnv(t)
	f := &recoveryFixture{
		env:    env,
		mailer: &mailerStub{ok: true},
		clock:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewRecoveryService(env.users, env.codes, f.mailer, "Social Media App")
	f.svc.now = func() time.Time { return f.clock }
	f.svc.newCode = func() (string, error) {
		if len(f.codes) == 0 {
			return "123456", nil
		}
		c := f.codes[0]
		f.codes = f.codes[1:]
		return c, nil
	}
	return f
}

func TestRecoveryService_ForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email gets the generic message and no code", func(t *testing.T) {
		f := newRecoveryFixture(t)
		msg, err := f.svc.ForgotPassword(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.Equal(t, ForgotPasswordMessage, msg)
		assert.Empty(t, f.mailer.messages())

		var count int64
		require.NoError(t, f.env.db.Model(&models.PasswordResetCode{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("known email stores a code and mails it", func(t *testing.T) {
		f := newRecoveryFixture(t)
		user := f.env.register(t, "frank")

		msg, err := f.svc.ForgotPassword(ctx, "FRANK@example.com")
		require.NoError(t, err)
		assert.Equal(t, ForgotPasswordMessage, msg)

		var rc models.PasswordResetCode
		require.NoError(t, f.env.db.Where("user_id = ?", user.ID).First(&rc).Error)
		assert.Equal(t, "123456", rc.Code)
		assert.False(t, rc.Used)
		assert.WithinDuration(t, f.clock.Add(ResetCodeTTL), rc.ExpiresAt, time.Second)

		sent := f.mailer.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, user.Email, sent[0].To)
		assert.Contains(t, sent[0].HTML, "123456")
	})

	t.Run("mail failure does not change the response", func(t *testing.T) {
		f := newRecoveryFixture(t)
		f.mailer.ok = false
		f.env.register(t, "gina")

		msg, err := f.svc.ForgotPassword(ctx, "gina@example.com")
		require.NoError(t, err)
		assert.Equal(t, ForgotPasswordMessage, msg)
	})

	t.Run("malformed email is rejected", func(t *testing.T) {
		f := newRecoveryFixture(t)
		_, err := f.svc.ForgotPassword(ctx, "nope")
		assertAppCode(t, err, models.CodeValidation)
	})
}

func TestRecoveryService_VerifyCode(t *testing.T) {
	ctx := context.Background()
	f := newRecoveryFixture(t)
	f.env.register(t, "hank")
	_, err := f.svc.ForgotPassword(ctx, "hank@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.VerifyCode(ctx, "hank@example.com", "123456"))
	// Verification has no side effects.
	require.NoError(t, f.svc.VerifyCode(ctx, "hank@example.com", "123456"))

	assertAppCode(t, f.svc.VerifyCode(ctx, "nobody@example.com", "123456"), models.CodeNotFound)
	assertAppCode(t, f.svc.VerifyCode(ctx, "hank@example.com", "654321"), models.CodeValidation)
	assertAppCode(t, f.svc.VerifyCode(ctx, "hank@example.com", "12ab56"), models.CodeValidation)

	f.clock = f.clock.Add(ResetCodeTTL + time.Second)
	assertAppCode(t, f.svc.VerifyCode(ctx, "hank@example.com", "123456"), models.CodeValidation)
}

func TestRecoveryService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path consumes the code", func(t *testing.T) {
		f := newRecoveryFixture(t)
		user := f.env.register(t, "iris")
		_, err := f.svc.ForgotPassword(ctx, "iris@example.com")
		require.NoError(t, err)

		err = f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email:           "iris@example.com",
			Code:            "123456",
			NewPassword:     "brand-new-pass",
			ConfirmPassword: "brand-new-pass",
		})
		require.NoError(t, err)

		var stored models.User
		require.NoError(t, f.env.db.First(&stored, "id = ?", user.ID).Error)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("brand-new-pass")))

		var rc models.PasswordResetCode
		require.NoError(t, f.env.db.Where("user_id = ?", user.ID).First(&rc).Error)
		assert.True(t, rc.Used)

		// A consumed code cannot be used again.
		err = f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email:           "iris@example.com",
			Code:            "123456",
			NewPassword:     "another-pass",
			ConfirmPassword: "another-pass",
		})
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("mismatch is checked before the user", func(t *testing.T) {
		f := newRecoveryFixture(t)
		err := f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email:           "nobody@example.com",
			Code:            "123456",
			NewPassword:     "one-password",
			ConfirmPassword: "two-password",
		})
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		f := newRecoveryFixture(t)
		err := f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email:           "nobody@example.com",
			Code:            "123456",
			NewPassword:     "same-password",
			ConfirmPassword: "same-password",
		})
		assertAppCode(t, err, models.CodeNotFound)
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		f := newRecoveryFixture(t)
		f.env.register(t, "jack")
		_, err := f.svc.ForgotPassword(ctx, "jack@example.com")
		require.NoError(t, err)

		f.clock = f.clock.Add(16 * time.Minute)
		err = f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email:           "jack@example.com",
			Code:            "123456",
			NewPassword:     "same-password",
			ConfirmPassword: "same-password",
		})
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("older codes stay valid until consumed", func(t *testing.T) {
		f := newRecoveryFixture(t)
		f.codes = []string{"111111", "222222"}
		f.env.register(t, "kate")
		_, err := f.svc.ForgotPassword(ctx, "kate@example.com")
		require.NoError(t, err)
		f.clock = f.clock.Add(time.Minute)
		_, err = f.svc.ForgotPassword(ctx, "kate@example.com")
		require.NoError(t, err)

		require.NoError(t, f.svc.VerifyCode(ctx, "kate@example.com", "111111"))
		require.NoError(t, f.svc.VerifyCode(ctx, "kate@example.com", "222222"))
	})

	t.Run("concurrent resets consume the code once", func(t *testing.T) {
		f := newRecoveryFixture(t)
		f.env.register(t, "liam")
		_, err := f.svc.ForgotPassword(ctx, "liam@example.com")
		require.NoError(t, err)

		const workers = 5
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				pw := "password-" + strconv.Itoa(i)
				errs[i] = f.svc.ResetPassword(ctx, ResetPasswordInput{
					Email:           "liam@example.com",
					Code:            "123456",
					NewPassword:     pw,
					ConfirmPassword: pw,
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assertAppCode(t, err, models.CodeValidation)
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestGenerateResetCode(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := generateResetCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, resetCodeMin)
		assert.LessOrEqual(t, n, resetCodeMax)
	}
}
