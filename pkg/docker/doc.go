// Package docker runs disposable Oracle Database Free instances for
// integration testing of migration scripts.
//
// Containers are managed through testcontainers-go using the gvenzl
// oracle-free images, which create an application user on startup and can run
// initialization scripts from a mounted directory.
//
// # Usage Example
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		InitDir: "testdata/init",
//	})
//
//	ctx := context.Background()
//	defer container.Stop(ctx)
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	url, _ := container.GetURL()
//	client, _ := oracle.Open(ctx, url)
//	defer client.Close()
//
// Startup takes between several seconds (faststart images) and a few minutes,
// so callers should allow a generous context deadline.
package docker
