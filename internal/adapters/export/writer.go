// Package export пишет таблицы в JSON файлы вида {"<key>": [...]}
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Table имя файла и ключ верхнего уровня
type Table struct {
	File string
	Key  string
}

// Таблицы по умолчанию
var (
	ProductsTable        = Table{File: "products.json", Key: "products"}
	CharacteristicsTable = Table{File: "characteristics.json", Key: "characteristics"}
	RegionsTable         = Table{File: "regions.json", Key: "regions"}
	WarehousesTable      = Table{File: "warehouses.json", Key: "warehouses"}
	StocksTable          = Table{File: "stocks_compact.json", Key: "stocks"}
)

// Exporter пишет таблицы в каталог
type Exporter struct {
	dir string
}

// NewExporter создает каталог выгрузки при необходимости
func NewExporter(dir string) (*Exporter, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога выгрузки: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// Dir каталог выгрузки
func (e *Exporter) Dir() string { return e.dir }

// Path полный путь файла таблицы
func (e *Exporter) Path(t Table) string {
	return filepath.Join(e.dir, t.File)
}

// Write записывает таблицу целиком
func (e *Exporter) Write(t Table, rows any) (string, error) {
	path := e.Path(t)
	return path, WriteTable(path, t.Key, rows)
}

// Stream открывает потоковую запись таблицы
func (e *Exporter) Stream(t Table) (*TableStream, error) {
	return NewTableStream(e.Path(t), t.Key)
}

// WriteDocument записывает произвольный документ в файл каталога выгрузки
func (e *Exporter) WriteDocument(name string, doc any) (string, error) {
	path := filepath.Join(e.dir, name)
	return path, WriteDocument(path, doc)
}

// WriteTable пишет {"key": rows} с отступом в два пробела, без экранирования
// не-ASCII и HTML. Файл сначала пишется во временный и затем переименовывается.
func WriteTable(path, key string, rows any) error {
	return WriteDocument(path, map[string]any{key: rows})
}

// WriteDocument пишет doc в формате WriteTable
func WriteDocument(path string, doc any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("ошибка сериализации %s: %w", filepath.Base(path), err)
	}

	tmp, err := createTemp(path)
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		discard(tmp)
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return commit(tmp, path)
}

func createTemp(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла для %s: %w", path, err)
	}
	return f, nil
}

func commit(tmp *os.File, path string) error {
	if err := tmp.Sync(); err != nil {
		discard(tmp)
		return fmt.Errorf("ошибка sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("ошибка закрытия %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("ошибка chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("ошибка переименования в %s: %w", path, err)
	}
	return nil
}

func discard(tmp *os.File) {
	_ = tmp.Close()
	_ = os.Remove(tmp.Name())
}
