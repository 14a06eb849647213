package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/dispatch-api/config"
	"github.com/linesmerrill/dispatch-api/databases"
)

// Quick utility to reset a user's password by hand
// Usage: go run scripts/reset_password.go <username> <password>
// Reads DB_URI and DB_NAME from the environment or .env
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run scripts/reset_password.go <username> <password>")
		fmt.Println("Example: go run scripts/reset_password.go dispatcher1 0i2rinbcp12yc31h")
		os.Exit(1)
	}
	username, password := os.Args[1], os.Args[2]

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	conf := config.New()
	client, err := databases.NewClient(conf)
	if err != nil {
		fmt.Printf("Error creating client: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	users := databases.NewUserDatabase(databases.NewDatabase(conf, client))
	err = users.UpdateOne(ctx, bson.M{"username": username}, bson.M{"$set": bson.M{"password": string(hashedPassword)}})
	if err != nil {
		fmt.Printf("Error updating password of %q: %v\n", username, err)
		os.Exit(1)
	}
	fmt.Printf("Password of %q reset\n", username)
}
