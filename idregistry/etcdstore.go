package idregistry

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// keyPrefix namespaces registry entries in the shared etcd keyspace.
const keyPrefix = "/graphmind/databases/"

// EtcdStore is a Store backed by an etcd cluster, making database
// registration visible to every orchestrator replica sharing the same
// cluster. Grounded on registry.Registry's lease/client usage, simplified
// here to plain key writes since identifier registration has no TTL
// semantics (a registered database stays registered until unregistered).
type EtcdStore struct {
	client *clientv3.Client
}

// NewEtcdStore dials an etcd cluster at the given endpoints.
func NewEtcdStore(endpoints []string) (*EtcdStore, error) {
	client, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdStore{client: client}, nil
}

func (s *EtcdStore) Put(ctx context.Context, name string) error {
	_, err := s.client.Put(ctx, keyPrefix+name, "1")
	return err
}

func (s *EtcdStore) Delete(ctx context.Context, name string) error {
	_, err := s.client.Delete(ctx, keyPrefix+name)
	return err
}

func (s *EtcdStore) List(ctx context.Context) ([]string, error) {
	resp, err := s.client.Get(ctx, keyPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		names = append(names, string(kv.Key[len(keyPrefix):]))
	}
	return names, nil
}

func (s *EtcdStore) Close() error {
	return s.client.Close()
}
