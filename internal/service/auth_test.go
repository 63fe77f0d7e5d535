package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/game-center/account-service/internal/models"
	"github.com/game-center/account-service/internal/storage"
	"github.com/game-center/account-service/mocks"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testUser(t *testing.T, svc *Service, password string, status int64) *models.User {
	t.Helper()

	hash, err := svc.encoder.Encode(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Username:     "player-one",
		Email:        "user@example.com",
		PasswordHash: hash,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, svc, "S3cret!", 2)

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

	var saved *models.User
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})

	res, err := svc.Login(context.Background(), " User@Example.Com ", "S3cret!")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken.Token)
	require.NotEmpty(t, res.RefreshToken.Token)
	require.Equal(t, user.Email, res.User.Email)

	// Новая сессия записана, лимит MaxLoginCount=1 соблюдён.
	require.NotNil(t, saved)
	require.Len(t, saved.SessionIDs, 1)

	// status=2 разворачивается в полномочия "0","1".
	claims, err := svc.VerifyAuthToken(res.AccessToken.Token)
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1"}, claims.Authorities)
	require.Equal(t, user.ID.String(), claims.Subject)

	// refresh несёт jti новой сессии.
	rClaims, err := svc.VerifyRefreshToken(res.RefreshToken.Token)
	require.NoError(t, err)
	require.Equal(t, saved.SessionIDs[0], rClaims.ID)
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "absent@example.com").
		Return(nil, storage.ErrNotFound)

	_, err := svc.Login(context.Background(), "absent@example.com", "pw")
	require.ErrorIs(t, err, ErrLoginFail)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, svc, "right", 1)
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

	_, err := svc.Login(context.Background(), "user@example.com", "wrong")
	require.ErrorIs(t, err, ErrLoginFail)
}

// Пароль проверяется до статуса: отключённый аккаунт с верным паролем
// даёт ErrUserNotEnabled, с неверным — ErrLoginFail.
func TestLogin_DisabledUser(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, svc, "S3cret!", 0)
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

	_, err := svc.Login(context.Background(), "user@example.com", "S3cret!")
	require.ErrorIs(t, err, ErrUserNotEnabled)
}

func TestLogin_NoneUserID(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, svc, "S3cret!", 1)
	user.ID = uuid.Nil
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

	_, err := svc.Login(context.Background(), "user@example.com", "S3cret!")
	require.ErrorIs(t, err, ErrNoneUserID)
}

// Список сессий ведёт себя как FIFO: при превышении лимита вытесняются
// самые старые записи.
func TestLogin_SessionEviction(t *testing.T) {
	t.Parallel()

	cfg := testAuthCfg()
	cfg.MaxLoginCount = 2

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStorage(ctrl)
	svc := New(st, nil, nil, newPasswordEncoder(0, bcrypt.MinCost), cfg)

	user := testUser(t, svc, "S3cret!", 1)
	user.SessionIDs = []string{"old-a", "old-b"}

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

	var saved *models.User
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})

	_, err := svc.Login(context.Background(), "user@example.com", "S3cret!")
	require.NoError(t, err)

	require.Len(t, saved.SessionIDs, 2)
	require.Equal(t, "old-b", saved.SessionIDs[0])
	require.NotEqual(t, "old-a", saved.SessionIDs[1])
}

func TestLogin_SaveUserFailure(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, svc, "S3cret!", 1)
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	_, err := svc.Login(context.Background(), "user@example.com", "S3cret!")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrLoginFail)
}

func TestRefreshSession_OK(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, svc, "S3cret!", 1)
	user.SessionIDs = []string{"session-old"}

	issued, err := svc.IssueRefreshToken(user.ID.String(), "session-old")
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	var saved *models.User
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})

	res, err := svc.RefreshSession(context.Background(), issued.Token)
	require.NoError(t, err)

	// Слот сессии заменён на новый jti.
	require.Len(t, saved.SessionIDs, 1)
	require.NotEqual(t, "session-old", saved.SessionIDs[0])

	rClaims, err := svc.VerifyRefreshToken(res.RefreshToken.Token)
	require.NoError(t, err)
	require.Equal(t, saved.SessionIDs[0], rClaims.ID)
	// Потолок жизни сессии не сдвигается ротацией.
	require.Equal(t, issued.ExpiresAt, res.RefreshToken.ExpiresAt)
}

func TestRefreshSession_UnknownSession(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, svc, "S3cret!", 1)
	user.SessionIDs = []string{"another-session"}

	issued, err := svc.IssueRefreshToken(user.ID.String(), "evicted-session")
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	_, err = svc.RefreshSession(context.Background(), issued.Token)
	require.ErrorIs(t, err, ErrJWTVerifyFailed)
}

func TestRefreshSession_GarbageToken(t *testing.T) {
	t.Parallel()

	svc, _, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RefreshSession(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrJWTVerifyFailed)
}

func TestRefreshSession_DisabledUser(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := testUser(t, svc, "S3cret!", 0)
	user.SessionIDs = []string{"session-1"}

	issued, err := svc.IssueRefreshToken(user.ID.String(), "session-1")
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	_, err = svc.RefreshSession(context.Background(), issued.Token)
	require.ErrorIs(t, err, ErrUserNotEnabled)
}

func TestRefreshSession_UserGone(t *testing.T) {
	t.Parallel()

	svc, st, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := uuid.New()
	issued, err := svc.IssueRefreshToken(uid.String(), "session-1")
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), uid).Return(nil, storage.ErrNotFound)

	_, err = svc.RefreshSession(context.Background(), issued.Token)
	require.ErrorIs(t, err, ErrJWTVerifyFailed)
}

func TestRegister_OK(t *testing.T) {
	t.Parallel()

	svc, st, c, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	c.EXPECT().
		DeleteIfEquals(gomock.Any(), "vcode:email:new@example.com", "AB12CD").
		Return(true, nil)
	st.EXPECT().UserByEmail(gomock.Any(), "new@example.com").
		Return(nil, storage.ErrNotFound)

	var saved *models.User
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})

	info, err := svc.Register(context.Background(), "newbie", " New@Example.Com ", "S3cret!", "ab12cd")
	require.NoError(t, err)

	require.Equal(t, "new@example.com", info.Email)
	require.Equal(t, "newbie", info.Username)
	require.Equal(t, int64(1), info.Status)

	require.NotNil(t, saved)
	require.NotEqual(t, uuid.Nil, saved.ID)
	require.True(t, svc.encoder.Matches("S3cret!", saved.PasswordHash))
}

func TestRegister_VCodeMismatch(t *testing.T) {
	t.Parallel()

	svc, _, c, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	c.EXPECT().
		DeleteIfEquals(gomock.Any(), "vcode:email:new@example.com", "WRONG1").
		Return(false, nil)

	_, err := svc.Register(context.Background(), "newbie", "new@example.com", "pw", "wrong1")
	require.ErrorIs(t, err, ErrVCodeNotMatch)
}

func TestRegister_EmailTaken(t *testing.T) {
	t.Parallel()

	svc, st, c, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	c.EXPECT().
		DeleteIfEquals(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)
	st.EXPECT().UserByEmail(gomock.Any(), "taken@example.com").
		Return(testUser(t, svc, "pw", 1), nil)

	_, err := svc.Register(context.Background(), "newbie", "taken@example.com", "pw", "ab12cd")
	require.ErrorIs(t, err, ErrUserExist)
}

// Гонка регистраций: уникальный индекс БД — последний рубеж.
func TestRegister_SaveConflict(t *testing.T) {
	t.Parallel()

	svc, st, c, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	c.EXPECT().
		DeleteIfEquals(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)
	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).
		Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		Return(storage.ErrAlreadyExists)

	_, err := svc.Register(context.Background(), "newbie", "race@example.com", "pw", "ab12cd")
	require.ErrorIs(t, err, ErrUserExist)
}
