package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PaymentInfo is shown to users before they buy an activation code.
type PaymentInfo struct {
	AccountNumber string   `mapstructure:"accountNumber" json:"accountNumber"`
	AccountName   string   `mapstructure:"accountName" json:"accountName"`
	MonthlyFee    int64    `mapstructure:"monthlyFee" json:"monthlyFee"`
	Currency      string   `mapstructure:"currency" json:"currency"`
	Methods       []string `mapstructure:"methods" json:"methods"`
}

func DefaultPaymentInfo() PaymentInfo {
	return PaymentInfo{
		AccountNumber: "0329-1238790",
		AccountName:   "FATIMA BIBI",
		MonthlyFee:    200,
		Currency:      "Rs",
		Methods:       []string{"JazzCash", "EasyPaisa"},
	}
}

var defaultPaymentPaths = []string{
	"/etc/scraprates",
	"/var/lib/scraprates/config",
	".",
}

type PaymentInfoHolder struct {
	current atomic.Value // holds PaymentInfo
}

func NewPaymentInfoHolder(log *zap.Logger) (*PaymentInfoHolder, error) {
	return LoadPaymentInfo(log, defaultPaymentPaths...)
}

// LoadPaymentInfo reads payment.yml from the first matching path and keeps
// watching it. A missing file yields the defaults.
func LoadPaymentInfo(log *zap.Logger, paths ...string) (*PaymentInfoHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("payment.config")

	v := viper.New()
	v.SetConfigName("payment")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("SCRAPRATES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPaymentInfo()
	v.SetDefault("payment.accountNumber", defaults.AccountNumber)
	v.SetDefault("payment.accountName", defaults.AccountName)
	v.SetDefault("payment.monthlyFee", defaults.MonthlyFee)
	v.SetDefault("payment.currency", defaults.Currency)
	v.SetDefault("payment.methods", defaults.Methods)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var info PaymentInfo
	if err := v.UnmarshalKey("payment", &info); err != nil {
		return nil, err
	}
	if err := validatePaymentInfo(info); err != nil {
		return nil, err
	}

	holder := &PaymentInfoHolder{}
	holder.current.Store(info)

	if !fileFound {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PaymentInfo
		if err := v.UnmarshalKey("payment", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validatePaymentInfo(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *PaymentInfoHolder) Get() PaymentInfo {
	return h.current.Load().(PaymentInfo)
}

func validatePaymentInfo(info PaymentInfo) error {
	if strings.TrimSpace(info.AccountNumber) == "" {
		return errors.New("payment.accountNumber cannot be empty")
	}
	if info.MonthlyFee <= 0 {
		return errors.New("payment.monthlyFee must be positive")
	}
	if len(info.Methods) == 0 {
		return errors.New("payment.methods cannot be empty")
	}
	return nil
}
