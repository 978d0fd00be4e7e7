package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrStreamClosed запись в закрытый поток
var ErrStreamClosed = errors.New("table stream is closed")

// TableStream потоковая запись таблицы: одна запись на строку.
// Результат эквивалентен WriteTable как JSON документ.
type TableStream struct {
	path  string
	tmp   *os.File
	w     *bufio.Writer
	buf   bytes.Buffer
	enc   *json.Encoder
	count int
	done  bool
}

// NewTableStream открывает временный файл и пишет заголовок таблицы
func NewTableStream(path, key string) (*TableStream, error) {
	tmp, err := createTemp(path)
	if err != nil {
		return nil, err
	}

	s := &TableStream{path: path, tmp: tmp, w: bufio.NewWriter(tmp)}
	s.enc = json.NewEncoder(&s.buf)
	s.enc.SetEscapeHTML(false)

	if err := s.enc.Encode(key); err != nil {
		discard(tmp)
		return nil, fmt.Errorf("ошибка сериализации ключа %s: %w", key, err)
	}
	header := "{\n  " + string(bytes.TrimRight(s.buf.Bytes(), "\n")) + ": ["
	s.buf.Reset()
	if _, err := s.w.WriteString(header); err != nil {
		discard(tmp)
		return nil, fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return s, nil
}

// Write добавляет запись
func (s *TableStream) Write(record any) error {
	if s.done {
		return ErrStreamClosed
	}

	s.buf.Reset()
	if err := s.enc.Encode(record); err != nil {
		return fmt.Errorf("ошибка сериализации записи %d: %w", s.count, err)
	}

	sep := ",\n    "
	if s.count == 0 {
		sep = "\n    "
	}
	if _, err := s.w.WriteString(sep); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", s.path, err)
	}
	if _, err := s.w.Write(bytes.TrimRight(s.buf.Bytes(), "\n")); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", s.path, err)
	}
	s.count++
	return nil
}

// Count число записанных записей
func (s *TableStream) Count() int { return s.count }

// Close дописывает хвост документа и переименовывает файл на место
func (s *TableStream) Close() error {
	if s.done {
		return ErrStreamClosed
	}
	s.done = true

	tail := "]\n}\n"
	if s.count > 0 {
		tail = "\n  ]\n}\n"
	}
	if _, err := s.w.WriteString(tail); err != nil {
		discard(s.tmp)
		return fmt.Errorf("ошибка записи %s: %w", s.path, err)
	}
	if err := s.w.Flush(); err != nil {
		discard(s.tmp)
		return fmt.Errorf("ошибка записи %s: %w", s.path, err)
	}
	return commit(s.tmp, s.path)
}

// Abort удаляет временный файл; целевой файл не трогается
func (s *TableStream) Abort() {
	if s.done {
		return
	}
	s.done = true
	discard(s.tmp)
}
