package errors

import "errors"

var (
	ErrNotFound           = errors.New("ресурс не найден")
	ErrInvalidArgument    = errors.New("некорректный аргумент")
	ErrConflict           = errors.New("конфликт ресурса")
	ErrValidationFailed   = errors.New("ошибка валидации")
	ErrUnauthorized       = errors.New("нет доступа")
	ErrInvalidCredentials = errors.New("неверные учетные данные")
	ErrInternalServer     = errors.New("внутренняя ошибка сервера")

	ErrTodoNotFound      = kind(ErrNotFound, "задача не найдена")
	ErrUserNotFound      = kind(ErrNotFound, "пользователь не найден")
	ErrUserAlreadyExists = kind(ErrConflict, "пользователь уже существует")

	ErrBadRequest = kind(ErrInvalidArgument, "неверный запрос")

	ErrInvalidPageSize  = kind(ErrInvalidArgument, "размер страницы должен быть больше нуля")
	ErrInvalidPageIndex = kind(ErrInvalidArgument, "номер страницы не может быть отрицательным")
	ErrInvalidCount     = kind(ErrInvalidArgument, "количество элементов не может быть отрицательным")
	ErrInvalidTitle     = kind(ErrInvalidArgument, "некорректный заголовок задачи")
	ErrInvalidPriority  = kind(ErrInvalidArgument, "недопустимый приоритет задачи")
	ErrInvalidID        = kind(ErrInvalidArgument, "некорректный идентификатор")

	ErrBlankUsername    = kind(ErrInvalidArgument, "имя пользователя не может быть пустым")
	ErrUsernameTooLong  = kind(ErrInvalidArgument, "имя пользователя не может быть длиннее 50 символов")
	ErrUsernameTaken    = kind(ErrConflict, "имя пользователя уже занято")
	ErrBlankPassword    = kind(ErrInvalidArgument, "пароль не может быть пустым")
	ErrPasswordMismatch = kind(ErrValidationFailed, "пароли не совпадают")

	ErrInvalidToken = kind(ErrUnauthorized, "недействительный токен")
	ErrExpiredToken = kind(ErrUnauthorized, "срок действия токена истёк")

	ErrConfigFileReadFailed = errors.New("не удалось прочитать файл конфигурации")
	ErrConfigParseFailed    = errors.New("не удалось разобрать файл конфигурации")
	ErrConfigInvalidFormat  = errors.New("некорректный формат значения конфигурации")
	ErrUnknownStorage       = errors.New("неизвестный тип хранилища")

	ErrInvalidGzipRequest    = errors.New("некорректный gzip в теле запроса")
	ErrGzipCompressionFailed = errors.New("ошибка gzip-сжатия ответа")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// kind returns an error with its own message that still matches parent under errors.Is.
func kind(parent error, msg string) error {
	return &kindError{msg: msg, kind: parent}
}

// FieldError ties a validation failure to the form field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }
