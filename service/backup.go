package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"ledger/config"
	"ledger/database"
	"ledger/models"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var (
	// ErrBackupDisabled 云备份未启用
	ErrBackupDisabled = errors.New("云备份未启用，请在配置中开启 backup.enabled")
	// ErrBackupNotFound 备份文件不存在
	ErrBackupNotFound = errors.New("备份文件不存在")
	// ErrInvalidBackupName 备份文件名非法
	ErrInvalidBackupName = errors.New("无效的备份文件名")
)

// BackupService 云备份服务（Google Cloud Storage）
// 将供应商、交易流水和用户数据序列化为 JSON 快照上传到对象存储。
// 对核心数据只读，不会反向修改任何业务表。
type BackupService struct {
	cfg *config.BackupConfig
}

// NewBackupService 创建云备份服务
func NewBackupService(cfg *config.BackupConfig) *BackupService {
	return &BackupService{cfg: cfg}
}

// BackupCreator 备份发起人信息
type BackupCreator struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// BackupSnapshot 备份数据快照
type BackupSnapshot struct {
	Version      int                  `json:"version"`
	CreatedAt    time.Time            `json:"created_at"`
	CreatedBy    *BackupCreator       `json:"created_by,omitempty"`
	Suppliers    []models.Supplier    `json:"suppliers"`
	Transactions []models.Transaction `json:"transactions"`
	Users        []models.User        `json:"users"`
}

// BackupInfo 备份文件信息
type BackupInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// newClient 初始化 Google Cloud Storage 客户端
// 优先使用配置中的凭据 JSON，未配置时走 ADC
// （GOOGLE_APPLICATION_CREDENTIALS 或运行环境的服务账号）
func (s *BackupService) newClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := strings.TrimSpace(s.cfg.CredentialsJSON); credJSON != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// objectName 生成备份对象名，prefix/backup-时间戳.json
func (s *BackupService) objectName(now time.Time) string {
	prefix := strings.Trim(s.cfg.Prefix, "/")
	name := fmt.Sprintf("backup-%s.json", now.Format("20060102-150405"))
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// validateName 校验备份对象名，防止通过本接口读写任意对象
func (s *BackupService) validateName(name string) error {
	prefix := strings.Trim(s.cfg.Prefix, "/")
	if prefix != "" && !strings.HasPrefix(name, prefix+"/") {
		return ErrInvalidBackupName
	}
	if strings.Contains(name, "..") || !strings.HasSuffix(name, ".json") {
		return ErrInvalidBackupName
	}
	return nil
}

// Create 创建备份：读取全量数据集并上传 JSON 快照
func (s *BackupService) Create(ctx context.Context, createdBy *BackupCreator) (*BackupInfo, error) {
	if !s.cfg.Enabled {
		return nil, ErrBackupDisabled
	}

	snapshot := BackupSnapshot{
		Version:   1,
		CreatedAt: time.Now(),
		CreatedBy: createdBy,
	}
	if err := database.DB.Order("id ASC").Find(&snapshot.Suppliers).Error; err != nil {
		return nil, fmt.Errorf("读取供应商数据失败: %w", err)
	}
	if err := database.DB.Order("id ASC").Find(&snapshot.Transactions).Error; err != nil {
		return nil, fmt.Errorf("读取流水数据失败: %w", err)
	}
	if err := database.DB.Order("id ASC").Find(&snapshot.Users).Error; err != nil {
		return nil, fmt.Errorf("读取用户数据失败: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化备份数据失败: %w", err)
	}

	client, err := s.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化存储客户端失败: %w", err)
	}
	defer client.Close()

	name := s.objectName(snapshot.CreatedAt)
	wc := client.Bucket(s.cfg.Bucket).Object(name).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		return nil, fmt.Errorf("上传备份失败: %w", err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("上传备份失败: %w", err)
	}

	return &BackupInfo{
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: snapshot.CreatedAt,
	}, nil
}

// List 列出已有备份，按创建时间倒序
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	if !s.cfg.Enabled {
		return nil, ErrBackupDisabled
	}

	client, err := s.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化存储客户端失败: %w", err)
	}
	defer client.Close()

	prefix := strings.Trim(s.cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	var backups []BackupInfo
	it := client.Bucket(s.cfg.Bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("列出备份失败: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:      attrs.Name,
			Size:      attrs.Size,
			CreatedAt: attrs.Created,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Download 下载指定备份的 JSON 内容
func (s *BackupService) Download(ctx context.Context, name string) ([]byte, error) {
	if !s.cfg.Enabled {
		return nil, ErrBackupDisabled
	}
	if err := s.validateName(name); err != nil {
		return nil, err
	}

	client, err := s.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化存储客户端失败: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(s.cfg.Bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrBackupNotFound
		}
		return nil, fmt.Errorf("读取备份失败: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("读取备份失败: %w", err)
	}
	return data, nil
}

// Delete 删除指定备份
func (s *BackupService) Delete(ctx context.Context, name string) error {
	if !s.cfg.Enabled {
		return ErrBackupDisabled
	}
	if err := s.validateName(name); err != nil {
		return err
	}

	client, err := s.newClient(ctx)
	if err != nil {
		return fmt.Errorf("初始化存储客户端失败: %w", err)
	}
	defer client.Close()

	if err := client.Bucket(s.cfg.Bucket).Object(name).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("删除备份失败: %w", err)
	}
	return nil
}

// Status 检查存储桶连通性
func (s *BackupService) Status(ctx context.Context) error {
	if !s.cfg.Enabled {
		return ErrBackupDisabled
	}

	client, err := s.newClient(ctx)
	if err != nil {
		return fmt.Errorf("初始化存储客户端失败: %w", err)
	}
	defer client.Close()

	if _, err := client.Bucket(s.cfg.Bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("存储桶 %q 不可访问: %w", s.cfg.Bucket, err)
	}
	return nil
}
