package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/MedRemind/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"text missing", errors.ErrCodeTextMissing, "text is required"},
		{"reminder not found", errors.ErrCodePrescriptionNotFound, "reminder abc not found"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	wrapped := errors.Wrap(root, errors.ErrCodeDatabaseError, "query failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeDatabaseError, wrapped.Code)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodePrescriptionNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeUnknown, "adding context")

	assert.Equal(t, errors.ErrCodePrescriptionNotFound, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodePrescriptionNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeInternal, "unexpected state")

	assert.Equal(t, errors.CodeInternal, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Error()
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[MED_002] text is required",
		errors.New(errors.ErrCodeTextMissing, "text is required").Error())
	assert.Equal(t, "[COMMON_005] missing: id=42",
		errors.NotFound("missing").WithDetail("id=42").Error())
	assert.Equal(t, "[VOC_001] lookup failed: timeout",
		errors.Wrap(stderrors.New("timeout"), errors.ErrCodeVocabularyUnavailable, "lookup failed").Error())
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	orig := errors.InvalidParam("bad")
	withDetail := orig.WithDetail("field=name")

	assert.Empty(t, orig.Detail)
	assert.Equal(t, "field=name", withDetail.Detail)
}

func TestNilReceiverBuilders(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_NestedChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeVocabularyUnavailable, "openFDA down")
	outer := fmt.Errorf("validate: %w", inner)

	assert.True(t, errors.IsCode(outer, errors.ErrCodeVocabularyUnavailable))
	assert.False(t, errors.IsCode(outer, errors.CodeInternal))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
	assert.False(t, errors.IsCode(stderrors.New("plain"), errors.CodeInternal))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(fmt.Errorf("wrap: %w", errors.New(errors.ErrCodePrescriptionNotFound, "x"))))
	assert.False(t, errors.IsNotFound(errors.Internal("x")))
	assert.False(t, errors.IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeOCRNoText,
		errors.GetCode(fmt.Errorf("upload: %w", errors.New(errors.ErrCodeOCRNoText, "no text"))))
}

func TestAppError_HTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 400, errors.New(errors.ErrCodeTextMissing, "x").HTTPStatus())
	assert.Equal(t, 404, errors.NotFound("x").HTTPStatus())
	assert.Equal(t, 403, errors.Forbidden("x").HTTPStatus())
}

func TestStdlib_ErrorsAs_ExtractsAppError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", errors.InvalidParam("frequency is required"))

	var ae *errors.AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "frequency is required", ae.Message)
}

//Personal.AI order the ending
