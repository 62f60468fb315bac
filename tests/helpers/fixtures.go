package helpers

import (
	"encoding/json"
)

// TestUser represents a test user fixture
type TestUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TestProject represents a test project fixture
type TestProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Framework   string `json:"framework"`
}

// Default test fixtures
var (
	DefaultTestUser = TestUser{
		Email:    "test@example.com",
		Password: "test-password-123",
	}

	DefaultTestProject = TestProject{
		Name:        "Test Shop",
		Description: "A test project for integration testing",
		Prompt:      "Build an ecommerce store with cart and checkout",
		Framework:   "react",
	}
)

// ToJSON converts a fixture to JSON string
func ToJSON(fixture interface{}) string {
	data, _ := json.Marshal(fixture)
	return string(data)
}

// FromJSON parses JSON string to map
func FromJSON(jsonStr string) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal([]byte(jsonStr), &result)
	return result
}

// CreateTestLoginRequest creates a login request payload
func CreateTestLoginRequest(email, password string) map[string]interface{} {
	return map[string]interface{}{
		"email":    email,
		"password": password,
	}
}

// CreateTestProjectRequest creates a project creation request payload
func CreateTestProjectRequest(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"prompt":      DefaultTestProject.Prompt,
		"framework":   DefaultTestProject.Framework,
	}
}

// CreateTestGenerateRequest creates a generation request payload
func CreateTestGenerateRequest(prompt, framework string) map[string]interface{} {
	return map[string]interface{}{
		"prompt":    prompt,
		"framework": framework,
	}
}
