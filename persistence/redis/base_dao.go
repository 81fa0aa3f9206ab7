package redis

import (
	"fmt"
	"strings"

	rd "github.com/go-redis/redis/v9"
)

type baseDao struct {
	redisClient rd.UniversalClient
	namespace   string
}

func newBaseDao(conf Config) *baseDao {
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs:    conf.Addrs,
		Password: conf.Password,
	})
	return &baseDao{
		redisClient: redisClient,
		namespace:   conf.Namespace,
	}
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// getNamespaceKey escapes ':' inside each part, so ("a:b", "c") and ("a", "b:c") differ.
func (bs *baseDao) getNamespaceKey(args ...string) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = keyEscaper.Replace(arg)
	}
	return fmt.Sprintf("%s:%s", bs.namespace, strings.Join(parts, ":"))
}

func (bs *baseDao) Close() error {
	return bs.redisClient.Close()
}
